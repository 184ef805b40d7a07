// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// Package stapler implements the Unpack-Edit-Pack pipeline that embeds
// deterministic provenance metadata into an OOXML (.docx) package.
//
// [Unpack] extracts the zip container into an ephemeral workspace and
// captures the SHA-256 fingerprint of the original source bytes.
// [Inject] rewrites the three target parts (docProps/core.xml,
// word/settings.xml, word/document.xml) with the author, session id,
// fingerprint, timestamp, and a revision marker derived from the
// session id. [Workspace.Pack] reassembles the workspace into a new
// DEFLATE-compressed archive with lexicographic member order and fixed
// member timestamps, so repeated packing of identical content yields
// byte-identical archives. [Verify] reads a stapled package back
// without extraction and recovers the embedded provenance fields.
//
// Given the same inputs, every output of this package is reproducible:
// the fingerprint is fixed at unpack time, the revision marker is a
// pure function of the session id, and the pack order is a total order
// over part paths.
//
// The pipeline is strictly sequential per invocation. Concurrent
// invocations must use distinct workspace paths; nothing here locks
// across processes.
package stapler
