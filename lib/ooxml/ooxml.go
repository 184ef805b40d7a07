// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Namespace URLs of the OOXML parts the pipeline edits.
const (
	NamespaceWordprocessing = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceCoreProperties = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	NamespaceDublinCore     = "http://purl.org/dc/elements/1.1/"
	NamespaceDCTerms        = "http://purl.org/dc/terms/"
	NamespaceDCMIType       = "http://purl.org/dc/dcmitype/"
	NamespaceXSI            = "http://www.w3.org/2001/XMLSchema-instance"
)

// conventionalPrefixes maps namespace URLs to the prefixes Word itself
// uses. The serializer declares one of these when an edit references a
// namespace the document has no declaration for.
var conventionalPrefixes = map[string]string{
	NamespaceWordprocessing: "w",
	NamespaceCoreProperties: "cp",
	NamespaceDublinCore:     "dc",
	NamespaceDCTerms:        "dcterms",
	NamespaceDCMIType:       "dcmitype",
	NamespaceXSI:            "xsi",
}

// declaration is the XML declaration emitted for every serialized part.
const declaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Node is a child of an element: an *Element, Text, or Comment.
type Node interface{ isNode() }

// Text is character data, stored unescaped.
type Text string

// Comment is an XML comment, stored without the surrounding markers.
type Comment string

func (Text) isNode()     {}
func (Comment) isNode()  {}
func (*Element) isNode() {}

// Element is one XML element. Name.Space holds the resolved namespace
// URL (empty for unqualified names); attributes keep the form the
// decoder produced, including xmlns declarations.
type Element struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []Node
}

// NewElement creates an empty element with the given namespace URL and
// local name.
func NewElement(space, local string) *Element {
	return &Element{Name: xml.Name{Space: space, Local: local}}
}

// Find returns the first direct child element with the given namespace
// URL and local name, or nil.
func (e *Element) Find(space, local string) *Element {
	for _, child := range e.Children {
		element, ok := child.(*Element)
		if ok && element.Name.Space == space && element.Name.Local == local {
			return element
		}
	}
	return nil
}

// FindAll returns every direct child element with the given namespace
// URL and local name.
func (e *Element) FindAll(space, local string) []*Element {
	var matches []*Element
	for _, child := range e.Children {
		element, ok := child.(*Element)
		if ok && element.Name.Space == space && element.Name.Local == local {
			matches = append(matches, element)
		}
	}
	return matches
}

// Text returns the concatenated direct character data of the element.
func (e *Element) Text() string {
	var buffer bytes.Buffer
	for _, child := range e.Children {
		if text, ok := child.(Text); ok {
			buffer.WriteString(string(text))
		}
	}
	return buffer.String()
}

// SetText replaces the element's children with a single text node.
func (e *Element) SetText(value string) {
	e.Children = []Node{Text(value)}
}

// Attr returns the value of the attribute with the given namespace URL
// and local name.
func (e *Element) Attr(space, local string) (string, bool) {
	for _, attr := range e.Attrs {
		if attr.Name.Space == space && attr.Name.Local == local {
			return attr.Value, true
		}
	}
	return "", false
}

// SetAttr sets the attribute with the given namespace URL and local
// name, replacing an existing value or appending a new attribute.
func (e *Element) SetAttr(space, local, value string) {
	for i, attr := range e.Attrs {
		if attr.Name.Space == space && attr.Name.Local == local {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, xml.Attr{
		Name:  xml.Name{Space: space, Local: local},
		Value: value,
	})
}

// AppendChild appends a child element.
func (e *Element) AppendChild(child *Element) {
	e.Children = append(e.Children, child)
}

// Document is a parsed XML part.
type Document struct {
	Root *Element
}

// Parse decodes an XML document from r into an element tree.
func Parse(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)

	var root *Element
	var stack []*Element

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing xml: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			element := &Element{
				Name:  t.Name,
				Attrs: append([]xml.Attr(nil), t.Attr...),
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("parsing xml: multiple root elements")
				}
				root = element
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, element)
			}
			stack = append(stack, element)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parsing xml: unbalanced end element %s", t.Name.Local)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, Text(string(t)))
			}

		case xml.Comment:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, Comment(string(t)))
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("parsing xml: no root element")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("parsing xml: unclosed element %s", stack[len(stack)-1].Name.Local)
	}
	return &Document{Root: root}, nil
}

// ParseBytes decodes an XML document from a byte slice.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// Marshal serializes the document with the standard OOXML declaration.
func (d *Document) Marshal() ([]byte, error) {
	var buffer bytes.Buffer
	if err := d.Write(&buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Write serializes the document to w.
func (d *Document) Write(w io.Writer) error {
	if d.Root == nil {
		return fmt.Errorf("serializing xml: document has no root element")
	}
	if _, err := io.WriteString(w, declaration); err != nil {
		return err
	}
	return writeElement(w, d.Root, nsScope{prefixes: map[string]string{}})
}
