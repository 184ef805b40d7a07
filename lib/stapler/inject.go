// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package stapler

import (
	"fmt"
	"os"

	"github.com/xpii-foundation/xpii/lib/clock"
	"github.com/xpii-foundation/xpii/lib/ooxml"
)

// Package parts the injector touches.
const (
	corePropertiesPart = "docProps/core.xml"
	settingsPart       = "word/settings.xml"
	documentPart       = "word/document.xml"
)

// Embedded description format. Protocol constants: the verifier and
// every external consumer of stapled packages parse these exact
// tokens.
const (
	provenanceKey  = "XPII-CHAIN-PROVENANCE"
	fingerprintKey = "XPII-CHAIN-SHA256"
)

// sessionIDLayout formats a generated session id from local time.
const sessionIDLayout = "20060102150405"

// modifiedLayout formats the dcterms:modified W3CDTF value.
const modifiedLayout = "2006-01-02T15:04:05Z"

// Record is the provenance embedded into a package during injection.
type Record struct {
	// Author is the dc:creator value.
	Author string `json:"author"`

	// SessionID ties the package to one processing session.
	SessionID string `json:"session_id"`

	// Fingerprint is the SHA-256 hex digest of the original,
	// unmodified source package bytes. It references the input, not
	// the output.
	Fingerprint string `json:"fingerprint"`

	// ModifiedAt is the dcterms:modified timestamp, UTC W3CDTF.
	ModifiedAt string `json:"modified_at"`
}

// FormatDescription renders the exact delimited dc:description value.
func FormatDescription(sessionID, fingerprint string) string {
	return fmt.Sprintf("%s: %s | %s: %s", provenanceKey, sessionID, fingerprintKey, fingerprint)
}

// Inject rewrites the target XML parts of the workspace with the
// author, session id, source fingerprint, and a derived revision
// marker. An empty sessionID generates one from the current local time
// (YYYYMMDDHHMMSS). Parts absent from the package are tolerated and
// skipped; a part that exists but fails to parse returns
// ErrMalformedArchive wrapped with the parser message.
func Inject(workspace *Workspace, author, sessionID string, clk clock.Clock) (Record, error) {
	if sessionID == "" {
		sessionID = clk.Now().Format(sessionIDLayout)
	}
	record := Record{
		Author:      author,
		SessionID:   sessionID,
		Fingerprint: workspace.SourceDigest().String(),
		ModifiedAt:  clk.Now().UTC().Format(modifiedLayout),
	}

	if err := editCoreProperties(workspace.partPath(corePropertiesPart), record); err != nil {
		return Record{}, err
	}
	if err := editSettings(workspace.partPath(settingsPart), DeriveRSID(sessionID)); err != nil {
		return Record{}, err
	}
	if err := rewriteDocument(workspace.partPath(documentPart)); err != nil {
		return Record{}, err
	}
	return record, nil
}

// loadPart parses the XML part at path. A missing part returns
// (nil, nil): absence is tolerated, not an error.
func loadPart(path string) (*ooxml.Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	document, err := ooxml.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMalformedArchive, err)
	}
	return document, nil
}

// savePart serializes the document back over the part file.
func savePart(document *ooxml.Document, path string) error {
	data, err := document.Marshal()
	if err != nil {
		return fmt.Errorf("serializing %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// editCoreProperties sets dc:creator, dc:description, and
// dcterms:modified on the core properties part, creating any element
// that is absent.
func editCoreProperties(path string, record Record) error {
	document, err := loadPart(path)
	if err != nil || document == nil {
		return err
	}
	root := document.Root

	creator := root.Find(ooxml.NamespaceDublinCore, "creator")
	if creator == nil {
		creator = ooxml.NewElement(ooxml.NamespaceDublinCore, "creator")
		root.AppendChild(creator)
	}
	creator.SetText(record.Author)

	description := root.Find(ooxml.NamespaceDublinCore, "description")
	if description == nil {
		description = ooxml.NewElement(ooxml.NamespaceDublinCore, "description")
		root.AppendChild(description)
	}
	description.SetText(FormatDescription(record.SessionID, record.Fingerprint))

	modified := root.Find(ooxml.NamespaceDCTerms, "modified")
	if modified == nil {
		modified = ooxml.NewElement(ooxml.NamespaceDCTerms, "modified")
		root.AppendChild(modified)
	}
	modified.SetAttr(ooxml.NamespaceXSI, "type", "dcterms:W3CDTF")
	modified.SetText(record.ModifiedAt)

	return savePart(document, path)
}

// editSettings appends the revision marker to the w:rsids collection,
// creating the collection when absent. A marker already present is
// never duplicated.
func editSettings(path, marker string) error {
	document, err := loadPart(path)
	if err != nil || document == nil {
		return err
	}
	root := document.Root

	rsids := root.Find(ooxml.NamespaceWordprocessing, "rsids")
	if rsids == nil {
		rsids = ooxml.NewElement(ooxml.NamespaceWordprocessing, "rsids")
		root.AppendChild(rsids)
	}

	for _, existing := range rsids.FindAll(ooxml.NamespaceWordprocessing, "rsid") {
		if value, ok := existing.Attr(ooxml.NamespaceWordprocessing, "val"); ok && value == marker {
			return savePart(document, path)
		}
	}

	entry := ooxml.NewElement(ooxml.NamespaceWordprocessing, "rsid")
	entry.SetAttr(ooxml.NamespaceWordprocessing, "val", marker)
	rsids.AppendChild(entry)

	return savePart(document, path)
}

// rewriteDocument parses and re-serializes the main document part
// without touching its content, normalizing whitespace and encoding
// consistently with the edited parts.
func rewriteDocument(path string) error {
	document, err := loadPart(path)
	if err != nil || document == nil {
		return err
	}
	return savePart(document, path)
}
