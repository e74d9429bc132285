// Package selector parses and composes condition strings: pseudo-classes,
// pseudo-elements and at-rule guards attached to atomic classes.
package selector

import (
	"slices"
	"strings"
)

// ParseCombined splits a combined condition into pseudo part and at-rule
// part, empty string means absent.
//
// Strings starting with '@' are scanned backwards for the last top level
// ')' immediately followed by ':', at-rule bodies contain parentheses which
// must not be taken for pseudo-selector boundaries. Other strings are
// scanned forward to the first '@', pseudo-selectors never contain one.
func ParseCombined(s string) (pseudo, atRule string) {
	if !strings.HasPrefix(s, "@") {
		i := strings.IndexByte(s, '@')
		if i < 0 {
			return s, ""
		}
		return s[:i], s[i:]
	}

	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ')':
			if depth == 0 && i+1 < len(s) && s[i+1] == ':' {
				return s[i+1:], s[:i+1]
			}
			depth++
		case '(':
			if depth > 0 {
				depth--
			}
		}
	}
	return "", s
}

// SplitPseudos breaks a pseudo chain into tokens, each starting with one or
// two colons. Functional arguments are kept whole.
func SplitPseudos(s string) []string {
	var (
		tokens []string
		start  int
		depth  int
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ':' && depth == 0 && (i == 0 || s[i-1] != ':'):
			if i > start {
				tokens = append(tokens, s[start:i])
			}
			start = i
		}
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

// SplitAtRules breaks an at-rule chain on top level '@'.
func SplitAtRules(chain string) []string {
	var (
		rules []string
		start = -1
		depth int
	)
	for i := 0; i < len(chain); i++ {
		switch chain[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case '@':
			if depth != 0 {
				continue
			}
			if start >= 0 {
				if r := strings.TrimSpace(chain[start:i]); len(r) > 0 {
					rules = append(rules, r)
				}
			}
			start = i
		}
	}
	if start >= 0 {
		if r := strings.TrimSpace(chain[start:]); len(r) > 0 {
			rules = append(rules, r)
		}
	}
	return rules
}

// IsPseudoElement reports whether a pseudo token is a pseudo-element.
func IsPseudoElement(token string) bool {
	return strings.HasPrefix(token, "::")
}

// Name strips functional arguments: ":not(.a)" -> ":not".
func Name(token string) string {
	if i := strings.IndexByte(token, '('); i >= 0 {
		return token[:i]
	}
	return token
}

// AtRuleName returns the keyword of an at-rule: "@media (x)" -> "@media".
func AtRuleName(rule string) string {
	if i := strings.IndexAny(rule, " ("); i >= 0 {
		return rule[:i]
	}
	return rule
}

// Sort orders pseudo tokens. Pseudo-elements keep their positions and
// separate runs of pseudo-classes, each run is sorted with "default" first
// and lexicographically otherwise.
func Sort(pseudos []string) []string {
	out := slices.Clone(pseudos)
	start := 0
	for i := 0; i <= len(out); i++ {
		if i < len(out) && !IsPseudoElement(out[i]) {
			continue
		}
		slices.SortStableFunc(out[start:i], compare)
		start = i + 1
	}
	return out
}

func compare(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "default":
		return -1
	case b == "default":
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// SortCombined applies Sort to a concatenated pseudo chain. Strings with
// functional pseudo-selectors are returned unchanged.
func SortCombined(s string) string {
	if strings.Contains(s, "(") {
		return s
	}
	return strings.Join(Sort(SplitPseudos(s)), "")
}

// Extract separates pseudo-elements from pseudo-classes of a chain keeping
// relative order inside each group.
func Extract(s string) (classes, elements string) {
	var c, e strings.Builder
	for _, tok := range SplitPseudos(s) {
		if IsPseudoElement(tok) {
			e.WriteString(tok)
		} else {
			c.WriteString(tok)
		}
	}
	return c.String(), e.String()
}

// Build composes final selector of an atomic class. When zeroSpecificity is
// set pseudo-class runs are wrapped in :where() so every atomic selector
// weighs the same as a bare class selector.
func Build(class, suffix, pseudoElement string, zeroSpecificity bool) string {
	var sb strings.Builder
	sb.WriteByte('.')
	sb.WriteString(class)
	if !zeroSpecificity {
		sb.WriteString(suffix)
		sb.WriteString(pseudoElement)
		return sb.String()
	}

	run := make([]string, 0, 4)
	flush := func() {
		if len(run) > 0 {
			sb.WriteString(":where(")
			sb.WriteString(strings.Join(run, ""))
			sb.WriteByte(')')
			run = run[:0]
		}
	}
	for _, tok := range SplitPseudos(suffix + pseudoElement) {
		if IsPseudoElement(tok) {
			flush()
			sb.WriteString(tok)
			continue
		}
		run = append(run, tok)
	}
	flush()
	return sb.String()
}

// Partition fully separates a composed condition into its pseudo chain and
// at-rules in nesting order. Conditions composed from nested maps may
// alternate pseudo and at-rule parts, ParseCombined is applied until
// nothing is left.
func Partition(s string) (pseudo string, atRules []string) {
	var sb strings.Builder
	for len(s) > 0 {
		p, at := ParseCombined(s)
		if strings.HasPrefix(s, "@") {
			atRules = append(atRules, SplitAtRules(at)...)
			s = p
			continue
		}
		sb.WriteString(p)
		s = at
	}
	return sb.String(), atRules
}
