// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package stapler

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"github.com/xpii-foundation/xpii/lib/ooxml"
)

// Verification is the provenance recovered from a stapled package.
// Fields with no value in the package read "Unknown" rather than empty.
// Extra holds delimited description fields whose keys the verifier does
// not recognize; they are preserved, not dropped.
type Verification struct {
	Record

	Extra map[string]string `json:"extra,omitempty"`
}

// Verify reads the package at path without extracting it and recovers
// the embedded provenance. It returns ErrMalformedArchive when the
// package is not a readable zip or its core properties fail to parse,
// ErrNoMetadata when the package has no docProps/core.xml part, and
// ErrNoProvenance when the description carries no provenance marker.
func Verify(path string) (Verification, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return Verification{}, fmt.Errorf("opening %s: %w: %v", path, ErrMalformedArchive, err)
	}
	defer reader.Close()

	data, err := readMember(&reader.Reader, corePropertiesPart)
	if err != nil {
		return Verification{}, fmt.Errorf("%s: %w", path, err)
	}
	document, err := ooxml.ParseBytes(data)
	if err != nil {
		return Verification{}, fmt.Errorf("%s: %s: %w: %v", path, corePropertiesPart, ErrMalformedArchive, err)
	}
	root := document.Root

	description := ""
	if element := root.Find(ooxml.NamespaceDublinCore, "description"); element != nil {
		description = element.Text()
	}
	if !strings.Contains(description, provenanceKey) {
		return Verification{}, fmt.Errorf("%s: %w", path, ErrNoProvenance)
	}

	verification := Verification{
		Record: Record{
			Author:     textOrUnknown(root, ooxml.NamespaceDublinCore, "creator"),
			ModifiedAt: textOrUnknown(root, ooxml.NamespaceDCTerms, "modified"),
		},
	}
	for _, field := range strings.Split(description, "|") {
		key, value, ok := strings.Cut(strings.TrimSpace(field), ": ")
		if !ok {
			continue
		}
		switch key {
		case provenanceKey:
			verification.SessionID = value
		case fingerprintKey:
			verification.Fingerprint = value
		default:
			if verification.Extra == nil {
				verification.Extra = map[string]string{}
			}
			verification.Extra[key] = value
		}
	}
	return verification, nil
}

// readMember returns the full contents of one archive member. A member
// absent from the archive is ErrNoMetadata.
func readMember(reader *zip.Reader, name string) ([]byte, error) {
	for _, member := range reader.File {
		if member.Name != name {
			continue
		}
		source, err := member.Open()
		if err != nil {
			return nil, fmt.Errorf("opening member %s: %w: %v", name, ErrMalformedArchive, err)
		}
		defer source.Close()
		data, err := io.ReadAll(source)
		if err != nil {
			return nil, fmt.Errorf("reading member %s: %w: %v", name, ErrMalformedArchive, err)
		}
		return data, nil
	}
	return nil, ErrNoMetadata
}

// textOrUnknown returns the text of a direct child element, or
// "Unknown" when the element is absent or empty.
func textOrUnknown(root *ooxml.Element, space, local string) string {
	element := root.Find(space, local)
	if element == nil {
		return "Unknown"
	}
	if text := element.Text(); text != "" {
		return text
	}
	return "Unknown"
}
