// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the XPII Chain standard CBOR encoding
// configuration.
//
// XPII Chain uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: audit trail exports, policy rules
//     files, and CLI output.
//   - Deterministic CBOR for internal canonicalization: the byte form
//     that audit entry hashes are computed over.
//
// The audit log's hash chain requires that the same logical entry
// always serializes to identical bytes, so the encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2): sorted map keys, smallest
// integer encoding, no indefinite-length items. A `json` tag on a type
// controls field naming for both formats, since fxamacker/cbor reads
// `json` tags when `cbor` tags are absent.
//
// For buffer-oriented use:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// [Clone] deep-copies a value through a marshal/unmarshal round trip.
// The audit log uses it to sever aliasing between caller-provided
// context maps and the immutable entries it stores.
package codec
