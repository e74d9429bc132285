package selector

import (
	"slices"
	"strings"

	"atomcss/tables"
)

// Prefixer expands pseudo tokens which browsers only understand in vendor
// specific forms into selector lists.
type Prefixer struct {
	entries []tables.SelectorPrefix
}

// NewPrefixer creates prefixer driven by the selector prefix table.
func NewPrefixer(t *tables.Tables) *Prefixer {
	return &Prefixer{entries: t.SelectorPrefixes}
}

// find returns the first table entry matching a whole pseudo token of sel
// and its position.
func (p *Prefixer) find(sel string) (tables.SelectorPrefix, int, bool) {
	for _, e := range p.entries {
		for off := 0; off < len(sel); {
			i := strings.Index(sel[off:], e.Match)
			if i < 0 {
				break
			}
			i += off
			if tokenBoundary(sel, i, len(e.Match)) {
				return e, i, true
			}
			off = i + 1
		}
	}
	return tables.SelectorPrefix{}, 0, false
}

// tokenBoundary makes sure ":selection" does not match inside "::selection"
// and ":autofill" does not match ":autofill-x".
func tokenBoundary(sel string, at, n int) bool {
	if at > 0 && sel[at-1] == ':' {
		return false
	}
	if end := at + n; end < len(sel) {
		c := sel[end]
		if c == '-' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// Prefix substitutes the first matching token with every variant and joins
// results into a selector list. Selectors without a match are returned
// unchanged.
func (p *Prefixer) Prefix(sel string) string {
	e, at, ok := p.find(sel)
	if !ok {
		return sel
	}
	prefix, suffix := sel[:at], sel[at+len(e.Match):]
	out := make([]string, 0, len(e.Variants))
	for _, v := range e.Variants {
		out = append(out, prefix+v+suffix)
	}
	return strings.Join(out, ", ")
}

// NeedsPrefix reports whether Prefix would change sel.
func (p *Prefixer) NeedsPrefix(sel string) bool {
	e, _, ok := p.find(sel)
	return ok && !(len(e.Variants) == 1 && e.Variants[0] == e.Match)
}

// Standard returns the token a vendor specific pseudo token is generated
// from, when the table covers it.
func (p *Prefixer) Standard(token string) (string, bool) {
	for _, e := range p.entries {
		if token == e.Match {
			continue
		}
		if slices.Contains(e.Variants, token) {
			return e.Match, true
		}
	}
	return "", false
}
