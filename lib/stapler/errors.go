// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package stapler

import "errors"

// Error taxonomy of the pipeline. All are surfaced wrapped with
// context; check with errors.Is.
var (
	// ErrArchive means the pipeline input is not a valid zip
	// container, or lacks the mandatory [Content_Types].xml part.
	ErrArchive = errors.New("not a valid OOXML archive")

	// ErrMalformedArchive means a package under verification could
	// not be opened as a zip, or an XML part inside a package failed
	// to parse. The wrapped error carries the parser message.
	ErrMalformedArchive = errors.New("malformed archive")

	// ErrNoMetadata means verification found no docProps/core.xml
	// part.
	ErrNoMetadata = errors.New("package has no core properties part")

	// ErrNoProvenance means the core properties carry no provenance
	// marker: the description is absent, empty, or unmarked.
	ErrNoProvenance = errors.New("no provenance marker in package")
)
