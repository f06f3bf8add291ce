package extractor

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/ysmood/gson"
	"golang.org/x/net/html"
)

var ldJSONSelector = cascadia.MustCompile(`script[type="application/ld+json"]`)

// Document is the parsed view of one page shared by every strategy during
// a single Extract call. The DOM and the structured data block are each
// parsed exactly once.
type Document struct {
	// Raw is the unparsed response body. Pattern strategies search it
	// directly instead of the DOM text.
	Raw string

	dom *goquery.Document
	ld  StructuredData
}

// NewDocument parses body. Malformed markup never fails: the HTML parser
// recovers, and a missing or broken structured data block yields an
// empty StructuredData.
func NewDocument(body string) *Document {
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		root = &html.Node{Type: html.DocumentNode}
	}
	dom := goquery.NewDocumentFromNode(root)

	ld := StructuredData{}
	if script := dom.FindMatcher(ldJSONSelector).First(); script.Length() > 0 {
		ld = ParseStructuredData(script.Text())
	}

	return &Document{Raw: body, dom: dom, ld: ld}
}

// DOM returns the parsed HTML tree.
func (d *Document) DOM() *goquery.Document { return d.dom }

// StructuredData returns the page's first application/ld+json block.
func (d *Document) StructuredData() StructuredData { return d.ld }

// StructuredData is a loosely typed view over a JSON-LD object. Lookups
// fail softly per field: a type mismatch on one field never affects
// another.
type StructuredData struct {
	valid bool
	data  gson.JSON
}

// ParseStructuredData decodes raw as a single JSON object. Anything else
// (invalid JSON, trailing garbage, arrays, scalars) produces an empty
// StructuredData whose lookups all miss.
func ParseStructuredData(raw string) StructuredData {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return StructuredData{}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return StructuredData{}
	}
	if _, ok := v.(map[string]any); !ok {
		return StructuredData{}
	}
	return StructuredData{valid: true, data: gson.New(v)}
}

// Valid reports whether a JSON object was decoded.
func (s StructuredData) Valid() bool { return s.valid }

// Text returns the scalar at path rendered as a string. Strings are
// returned as-is and numbers keep their literal form. Objects, arrays,
// booleans, null, blank strings and absent keys all report false.
func (s StructuredData) Text(path ...string) (string, bool) {
	if !s.valid {
		return "", false
	}
	keys := make([]any, len(path))
	for i, p := range path {
		keys[i] = p
	}
	node, ok := s.data.Gets(keys...)
	if !ok {
		return "", false
	}
	switch v := node.Val().(type) {
	case string:
		return v, strings.TrimSpace(v) != ""
	case json.Number:
		return v.String(), true
	}
	return "", false
}
