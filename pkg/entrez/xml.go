package entrez

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DecodeXML parses an XML document into nested map/list structures: element
// attributes become "@name" keys, text content becomes a "#text" key (an
// element with neither attributes nor children collapses to its plain text),
// and repeated child elements become lists. This is the shape the assembler's
// extraction helpers consume.
func DecodeXML(r io.Reader) (map[string]any, error) {
	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("document has no root element")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode XML: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		value, err := decodeElement(decoder, start)
		if err != nil {
			return nil, fmt.Errorf("failed to decode XML: %w", err)
		}
		return map[string]any{start.Name.Local: value}, nil
	}
}

func decodeElement(decoder *xml.Decoder, start xml.StartElement) (any, error) {
	node := make(map[string]any)
	for _, attr := range start.Attr {
		node["@"+attr.Name.Local] = attr.Value
	}

	childCount := 0
	var text strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(decoder, t)
			if err != nil {
				return nil, err
			}
			childCount++
			appendChild(node, t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			content := strings.TrimSpace(text.String())
			if len(start.Attr) == 0 && childCount == 0 {
				if content == "" {
					return nil, nil
				}
				return content, nil
			}
			if content != "" && childCount == 0 {
				node["#text"] = content
			}
			return node, nil
		}
	}
}

// appendChild stores a child value under its element name, promoting a
// repeated name to a list.
func appendChild(node map[string]any, name string, child any) {
	existing, ok := node[name]
	if !ok {
		node[name] = child
		return
	}
	if list, ok := existing.([]any); ok {
		node[name] = append(list, child)
		return
	}
	node[name] = []any{existing, child}
}
