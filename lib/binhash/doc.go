// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash provides SHA-256 content hashing for package files.
//
// XPII Chain anchors every provenance record to the SHA-256 digest of
// the original, unmodified source package bytes. The digest is computed
// exactly once, when the package is unpacked, and is carried through the
// pipeline unchanged: it identifies the input, never the output.
//
// The API surface is small:
//
//   - [HashFile] -- streams a file through SHA-256 with a fixed-size
//     buffer, keeping memory usage constant regardless of file size
//   - [HashBytes] -- hashes an in-memory byte slice
//   - [Digest] -- a [32]byte digest whose canonical form is the
//     lowercase hex string used in embedded provenance markers and
//     audit entries
//   - [ParseDigest] -- parses the canonical hex form back to a Digest
//
// This package has no dependencies on other XPII packages.
package binhash
