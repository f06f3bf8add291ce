package extractor

import (
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Strategy is one step of a field cascade. Find reports the value it
// located and whether it found anything at all.
type Strategy struct {
	Name string
	Find func(d *Document) (string, bool)
}

// Cascade is an ordered list of strategies for one field. The first
// strategy that finds a value wins.
type Cascade []Strategy

// Resolve runs the cascade against d and returns the winning value and
// the name of the strategy that produced it. Both are empty when every
// step misses.
func (c Cascade) Resolve(d *Document) (value, step string) {
	for _, s := range c {
		if v, ok := s.Find(d); ok {
			return v, s.Name
		}
	}
	return "", ""
}

// MetaContent finds the content attribute of the first element matching
// selector. An element without content, or with blank content, is a miss.
func MetaContent(selector string) Strategy {
	sel := cascadia.MustCompile(selector)
	return Strategy{
		Name: "meta " + selector,
		Find: func(d *Document) (string, bool) {
			content, ok := d.dom.FindMatcher(sel).First().Attr("content")
			if !ok || strings.TrimSpace(content) == "" {
				return "", false
			}
			return content, true
		},
	}
}

// ElementText finds the trimmed text of the first element matching selector.
func ElementText(selector string) Strategy {
	sel := cascadia.MustCompile(selector)
	return Strategy{
		Name: "text " + selector,
		Find: func(d *Document) (string, bool) {
			text := strings.TrimSpace(d.dom.FindMatcher(sel).First().Text())
			return text, text != ""
		},
	}
}

// StructuredField reads a scalar from the page's structured data block.
// Path segments descend through nested objects only.
func StructuredField(path ...string) Strategy {
	return Strategy{
		Name: "ld+json " + strings.Join(path, "."),
		Find: func(d *Document) (string, bool) {
			return d.ld.Text(path...)
		},
	}
}

// Pattern finds the first match of re anywhere in the raw page body.
func Pattern(name string, re *regexp.Regexp) Strategy {
	return Strategy{
		Name: "pattern " + name,
		Find: func(d *Document) (string, bool) {
			m := re.FindString(d.Raw)
			return m, m != ""
		},
	}
}
