// Package xmlmap converts an XML document into nested maps.
//
// The mapping is deliberately lossy and schema-free, which is all a
// NuGet.Config reader needs:
//
//   - attributes become keys holding their string values
//   - each distinct child tag becomes a key; a tag seen more than once
//     holds a []any of the mapped children in document order
//   - an element with neither attributes nor child elements maps to its
//     trimmed text
//   - an element with attributes or child elements drops its bare text
//
// Tag and attribute names are kept as written, prefix included, so
// <n:item xmlns:n="urn:x"> maps to a "n:item" key holding an "xmlns:n" key.
//
// The result has exactly one key, the root tag:
//
//	m, _ := xmlmap.Parse(`<Order><LineItem>cat</LineItem><LineItem>dog</LineItem></Order>`)
//	// map[Order:map[LineItem:[cat dog]]]
package xmlmap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoRoot is returned for a non-empty document without a root element.
var ErrNoRoot = errors.New("xml document has no root element")

// Parse maps doc as described in the package documentation.
// Empty or whitespace-only input yields an empty map and no error.
// Comments, processing instructions and directives are skipped.
//
// doc may hold raw file bytes: a UTF-16 or UTF-8 byte order mark selects
// the decoding, and a declared legacy encoding such as windows-1252 is
// transcoded.
func Parse(doc string) (map[string]any, error) {
	doc, _, err := transform.String(unicode.BOMOverride(transform.Nop), doc)
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	if strings.TrimSpace(doc) == "" {
		return map[string]any{}, nil
	}
	d := xml.NewDecoder(strings.NewReader(doc))
	d.CharsetReader = charsetReader

	var root map[string]any
	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := qualified(t.Name)
			if root != nil {
				return nil, fmt.Errorf("parse xml: second root element <%s>", name)
			}
			v, err := mapElement(d, t)
			if err != nil {
				return nil, err
			}
			root = map[string]any{name: v}
		case xml.EndElement:
			return nil, fmt.Errorf("parse xml: unexpected end element </%s>", qualified(t.Name))
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) > 0 {
				return nil, fmt.Errorf("parse xml: text outside root element")
			}
		}
	}
	if root == nil {
		return nil, ErrNoRoot
	}
	return root, nil
}

// mapElement consumes tokens up to and including the end of start.
func mapElement(d *xml.Decoder, start xml.StartElement) (any, error) {
	name := qualified(start.Name)
	m := make(map[string]any, len(start.Attr))
	for _, a := range start.Attr {
		m[qualified(a.Name)] = a.Value
	}
	structured := len(start.Attr) > 0
	repeated := map[string]bool{}
	var text strings.Builder

	for {
		tok, err := d.RawToken()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("parse xml: <%s>: %w", name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			structured = true
			child, err := mapElement(d, t)
			if err != nil {
				return nil, err
			}
			appendChild(m, repeated, qualified(t.Name), child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if end := qualified(t.Name); end != name {
				return nil, fmt.Errorf("parse xml: element <%s> closed by </%s>", name, end)
			}
			if !structured {
				return strings.TrimSpace(text.String()), nil
			}
			return m, nil
		}
	}
}

// qualified joins a raw name back to its written prefix:local form.
func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// charsetReader transcodes declared legacy encodings. Unicode labels pass
// through because Parse has already decoded any byte order mark to UTF-8.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	switch name, _ := htmlindex.Name(enc); name {
	case "utf-8", "utf-16le", "utf-16be":
		return input, nil
	}
	return enc.NewDecoder().Reader(input), nil
}

func appendChild(m map[string]any, repeated map[string]bool, tag string, child any) {
	existing, ok := m[tag]
	switch {
	case !ok:
		m[tag] = child
	case repeated[tag]:
		m[tag] = append(existing.([]any), child)
	default:
		m[tag] = []any{existing, child}
		repeated[tag] = true
	}
}
