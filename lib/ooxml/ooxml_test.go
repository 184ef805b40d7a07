// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package ooxml

import (
	"bytes"
	"strings"
	"testing"
)

const coreSample = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><dc:title>Report &amp; Notes</dc:title><dc:creator>Old</dc:creator><dcterms:created xsi:type="dcterms:W3CDTF">2026-01-05T09:00:00Z</dcterms:created></cp:coreProperties>`

const settingsSample = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:zoom w:percent="100"/><w:rsids><w:rsid w:val="00AB12CD"/></w:rsids></w:settings>`

func TestParseResolvesNamespaces(t *testing.T) {
	doc, err := ParseBytes([]byte(coreSample))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	root := doc.Root
	if root.Name.Space != NamespaceCoreProperties || root.Name.Local != "coreProperties" {
		t.Errorf("root name = %+v", root.Name)
	}

	creator := root.Find(NamespaceDublinCore, "creator")
	if creator == nil {
		t.Fatal("dc:creator not found")
	}
	if creator.Text() != "Old" {
		t.Errorf("creator text = %q", creator.Text())
	}

	created := root.Find(NamespaceDCTerms, "created")
	if created == nil {
		t.Fatal("dcterms:created not found")
	}
	if value, ok := created.Attr(NamespaceXSI, "type"); !ok || value != "dcterms:W3CDTF" {
		t.Errorf("xsi:type = %q, %v", value, ok)
	}
}

func TestRoundTripPreservesPrefixes(t *testing.T) {
	doc, err := ParseBytes([]byte(coreSample))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	output, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	text := string(output)
	for _, want := range []string{
		`<cp:coreProperties `,
		`xmlns:dc="http://purl.org/dc/elements/1.1/"`,
		`<dc:creator>Old</dc:creator>`,
		`<dc:title>Report &amp; Notes</dc:title>`,
		`xsi:type="dcterms:W3CDTF"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("serialized output missing %q:\n%s", want, text)
		}
	}

	// A second parse of the output must yield the same tree content.
	reparsed, err := ParseBytes(output)
	if err != nil {
		t.Fatalf("reparsing serialized output: %v", err)
	}
	if got := reparsed.Root.Find(NamespaceDublinCore, "creator").Text(); got != "Old" {
		t.Errorf("reparsed creator = %q", got)
	}
}

func TestMarshalIsStable(t *testing.T) {
	doc, err := ParseBytes([]byte(settingsSample))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	first, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	redone, err := ParseBytes(first)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	second, err := redone.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("parse/serialize is not a fixed point:\n%s\n%s", first, second)
	}
}

func TestEditSettings(t *testing.T) {
	doc, err := ParseBytes([]byte(settingsSample))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	rsids := doc.Root.Find(NamespaceWordprocessing, "rsids")
	if rsids == nil {
		t.Fatal("w:rsids not found")
	}
	entry := NewElement(NamespaceWordprocessing, "rsid")
	entry.SetAttr(NamespaceWordprocessing, "val", "1A2B3C4D")
	rsids.AppendChild(entry)

	output, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(output), `<w:rsid w:val="1A2B3C4D"/>`) {
		t.Errorf("appended rsid not serialized with w prefix:\n%s", output)
	}
}

func TestCreateUndeclaredNamespace(t *testing.T) {
	// A core-properties part with no dc declaration: creating
	// dc:description must declare the conventional prefix locally.
	source := `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"/>`
	doc, err := ParseBytes([]byte(source))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	description := NewElement(NamespaceDublinCore, "description")
	description.SetText("XPII-CHAIN-PROVENANCE: S1")
	doc.Root.AppendChild(description)

	output, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text := string(output)
	if !strings.Contains(text, `<dc:description xmlns:dc="http://purl.org/dc/elements/1.1/">`) {
		t.Errorf("undeclared namespace not given conventional prefix:\n%s", text)
	}

	reparsed, err := ParseBytes(output)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if reparsed.Root.Find(NamespaceDublinCore, "description") == nil {
		t.Error("description element lost after round trip")
	}
}

func TestDefaultNamespace(t *testing.T) {
	source := `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`
	doc, err := ParseBytes([]byte(source))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	output, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text := string(output)
	if !strings.Contains(text, `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`) {
		t.Errorf("default namespace not preserved:\n%s", text)
	}
	if strings.Contains(text, "ns1:") {
		t.Errorf("default-namespace elements got a generated prefix:\n%s", text)
	}
}

func TestSetTextAndSetAttrReplace(t *testing.T) {
	element := NewElement(NamespaceDublinCore, "creator")
	element.SetText("first")
	element.SetText("second")
	if element.Text() != "second" {
		t.Errorf("Text = %q", element.Text())
	}

	element.SetAttr("", "id", "1")
	element.SetAttr("", "id", "2")
	if len(element.Attrs) != 1 {
		t.Fatalf("Attrs = %v", element.Attrs)
	}
	if value, _ := element.Attr("", "id"); value != "2" {
		t.Errorf("id = %q", value)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"not xml":    "PK\x03\x04 binary junk",
		"unclosed":   "<a><b></a>",
		"no root":    "<?xml version=\"1.0\"?>",
		"two roots":  "<a/><b/>",
		"bad entity": "<a>&nosuch;</a>",
	}
	for name, source := range cases {
		if _, err := ParseBytes([]byte(source)); err == nil {
			t.Errorf("%s: expected parse error", name)
		}
	}
}

func TestWriteMatchesMarshal(t *testing.T) {
	doc, err := ParseBytes([]byte(coreSample))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	var buffer bytes.Buffer
	if err := doc.Write(&buffer); err != nil {
		t.Fatalf("Write: %v", err)
	}
	marshaled, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(buffer.Bytes(), marshaled) {
		t.Errorf("Write output disagrees with Marshal:\n%s\nvs\n%s", buffer.Bytes(), marshaled)
	}
}
