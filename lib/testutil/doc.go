// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for XPII packages.
//
// [BuildPackage] assembles an OOXML zip fixture from a map of part
// paths to XML content, so stapler and governance tests do not each
// hand-roll zip writing. [StandardParts] returns the minimal part set
// used across the pipeline tests.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so individual tests
// do not need direct time.After calls.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
