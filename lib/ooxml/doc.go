// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// Package ooxml provides a small namespace-preserving element tree for
// editing the XML parts of an OOXML package.
//
// encoding/xml resolves namespace prefixes to URLs while decoding and
// offers no way to write them back, so a naive re-encode mangles the
// prefixed names (dc:creator, w:rsid) that Word expects. This package
// keeps the decoded tree and reserializes it with the prefixes declared
// by the document's own xmlns attributes, falling back to the
// conventional OOXML prefixes when an edit introduces a namespace the
// document did not declare.
//
// The tree is deliberately minimal: elements, character data, and
// comments. Processing instructions and DTD directives are dropped and
// the serializer always emits the standard OOXML declaration, which is
// the normalization the pipeline applies uniformly to every part it
// touches.
package ooxml
