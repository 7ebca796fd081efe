package browser

import (
	"fmt"
	"strings"
)

// Kind is the locator language of a Selector
type Kind string

const (
	KindCSS   Kind = "css"
	KindXPath Kind = "xpath"
)

// Selector locates one element on the page
type Selector struct {
	Query string `json:"query"`
	Kind  Kind   `json:"kind"`
	Label string `json:"-"`
}

// CSS builds a CSS selector
func CSS(query string) Selector {
	return Selector{Query: query, Kind: KindCSS}
}

// XPath builds an XPath selector
func XPath(query string) Selector {
	return Selector{Query: query, Kind: KindXPath}
}

// ID builds a selector for an element id
func ID(id string) Selector {
	return Selector{Query: "#" + id, Kind: KindCSS}
}

// Named returns a copy of s with a human label used in logs and errors
func (s Selector) Named(label string) Selector {
	s.Label = label
	return s
}

// IsZero reports whether the selector is empty
func (s Selector) IsZero() bool {
	return strings.TrimSpace(s.Query) == ""
}

// String renders the selector for logs
func (s Selector) String() string {
	if s.Label != "" {
		return fmt.Sprintf("%s(%s %s)", s.Label, s.Kind, s.Query)
	}
	return fmt.Sprintf("%s %s", s.Kind, s.Query)
}

// XPathLiteral quotes s for use inside an XPath expression.
// Strings containing both quote kinds are assembled with concat().
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
