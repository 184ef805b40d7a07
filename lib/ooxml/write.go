// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package ooxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// nsScope tracks the namespace declarations in effect at one point of
// the tree during serialization.
type nsScope struct {
	// prefixes maps namespace URL to declared prefix.
	prefixes map[string]string

	// defaultNS is the URL bound to the default namespace, if any.
	defaultNS string
}

// clone returns an independent copy of the scope for a child frame.
func (s nsScope) clone() nsScope {
	copied := nsScope{
		prefixes:  make(map[string]string, len(s.prefixes)),
		defaultNS: s.defaultNS,
	}
	for url, prefix := range s.prefixes {
		copied.prefixes[url] = prefix
	}
	return copied
}

// writeElement serializes element and its subtree. The element's own
// xmlns attributes extend the inherited scope; any namespace the
// element or its attributes reference without a declaration in scope
// gets a conventional prefix declared on this element.
func writeElement(w io.Writer, element *Element, parentScope nsScope) error {
	scope := parentScope.clone()

	// Declarations carried by the element itself take effect first;
	// they cover the element's own name.
	for _, attr := range element.Attrs {
		switch {
		case attr.Name.Space == "xmlns":
			scope.prefixes[attr.Value] = attr.Name.Local
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			scope.defaultNS = attr.Value
		}
	}

	// Collect namespaces referenced without a declaration in scope and
	// assign them conventional prefixes, declared on this element.
	var extraDeclarations []xml.Attr
	declare := func(url string) string {
		if prefix, ok := scope.prefixes[url]; ok {
			return prefix
		}
		prefix, ok := conventionalPrefixes[url]
		if !ok {
			prefix = fmt.Sprintf("ns%d", len(scope.prefixes)+1)
		}
		scope.prefixes[url] = prefix
		extraDeclarations = append(extraDeclarations, xml.Attr{
			Name:  xml.Name{Space: "xmlns", Local: prefix},
			Value: url,
		})
		return prefix
	}

	name, err := qualifiedName(element.Name, scope, declare)
	if err != nil {
		return err
	}

	var builder strings.Builder
	builder.WriteByte('<')
	builder.WriteString(name)

	writeAttr := func(attr xml.Attr) {
		var attrName string
		switch {
		case attr.Name.Space == "xmlns":
			attrName = "xmlns:" + attr.Name.Local
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			attrName = "xmlns"
		case attr.Name.Space == "":
			attrName = attr.Name.Local
		default:
			// Attributes never bind to the default namespace; a
			// prefix is required.
			attrName = declare(attr.Name.Space) + ":" + attr.Name.Local
		}
		builder.WriteByte(' ')
		builder.WriteString(attrName)
		builder.WriteString(`="`)
		builder.WriteString(escapeAttr(attr.Value))
		builder.WriteByte('"')
	}

	for _, attr := range element.Attrs {
		writeAttr(attr)
	}
	for _, attr := range extraDeclarations {
		writeAttr(attr)
	}

	if len(element.Children) == 0 {
		builder.WriteString("/>")
		_, err := io.WriteString(w, builder.String())
		return err
	}

	builder.WriteByte('>')
	if _, err := io.WriteString(w, builder.String()); err != nil {
		return err
	}

	for _, child := range element.Children {
		switch node := child.(type) {
		case *Element:
			if err := writeElement(w, node, scope); err != nil {
				return err
			}
		case Text:
			if _, err := io.WriteString(w, escapeText(string(node))); err != nil {
				return err
			}
		case Comment:
			if _, err := io.WriteString(w, "<!--"+string(node)+"-->"); err != nil {
				return err
			}
		}
	}

	_, err = io.WriteString(w, "</"+name+">")
	return err
}

// qualifiedName renders an element name with the prefix in scope for
// its namespace. Names in the default namespace render unprefixed.
func qualifiedName(name xml.Name, scope nsScope, declare func(string) string) (string, error) {
	if name.Local == "" {
		return "", fmt.Errorf("serializing xml: element with empty name")
	}
	if name.Space == "" || name.Space == scope.defaultNS {
		return name.Local, nil
	}
	if prefix, ok := scope.prefixes[name.Space]; ok {
		return prefix + ":" + name.Local, nil
	}
	return declare(name.Space) + ":" + name.Local, nil
}

// escapeText renders character data. Whitespace is left literal so
// that indentation in the source part survives re-serialization.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeText(value string) string {
	return textEscaper.Replace(value)
}

// escapeAttr renders a double-quoted attribute value.
var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeAttr(value string) string {
	return attrEscaper.Replace(value)
}
