// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

// Standard OOXML part content used by pipeline tests. The core
// properties deliberately carry a stale creator and no description, the
// starting state of the concrete verification scenario.
const (
	ContentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/></Types>`

	CorePropertiesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><dc:title>Quarterly Report</dc:title><dc:creator>Old</dc:creator><cp:lastModifiedBy>Old</cp:lastModifiedBy><dcterms:created xsi:type="dcterms:W3CDTF">2026-01-05T09:00:00Z</dcterms:created></cp:coreProperties>`

	SettingsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:zoom w:percent="100"/><w:rsids><w:rsidRoot w:val="00AB12CD"/><w:rsid w:val="00AB12CD"/></w:rsids></w:settings>`

	DocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Hello from the fixture.</w:t></w:r></w:p></w:body></w:document>`
)

// StandardParts returns the full part set of a minimal but realistic
// .docx fixture. Callers may delete or replace entries before passing
// the map to BuildPackage.
func StandardParts() map[string]string {
	return map[string]string{
		"[Content_Types].xml": ContentTypesXML,
		"docProps/core.xml":   CorePropertiesXML,
		"word/settings.xml":   SettingsXML,
		"word/document.xml":   DocumentXML,
	}
}

// BuildPackage writes an OOXML zip fixture containing the given parts
// into a fresh temporary directory and returns its path. The file is
// removed when the test completes.
func BuildPackage(t *testing.T, parts map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.docx")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating fixture package: %v", err)
	}
	defer file.Close()

	writer := zip.NewWriter(file)
	for name, content := range parts {
		member, err := writer.Create(name)
		if err != nil {
			t.Fatalf("creating fixture member %s: %v", name, err)
		}
		if _, err := member.Write([]byte(content)); err != nil {
			t.Fatalf("writing fixture member %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing fixture package: %v", err)
	}
	return path
}
