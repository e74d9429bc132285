// Package css contains the CSS level helpers of the compiler: value
// tokenizing and formatting on top of tdewolff lexer, RTL value flipping
// and the stylesheet writer.
package css

import (
	"math"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type token struct {
	tt   css.TokenType
	data string
}

func tokenize(value string) []token {
	l := css.NewLexer(parse.NewInputString(value))
	var out []token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			return out
		}
		out = append(out, token{tt: tt, data: string(data)})
	}
}

func opens(tt css.TokenType) bool {
	return tt == css.FunctionToken || tt == css.LeftParenthesisToken || tt == css.LeftBracketToken
}

func closes(tt css.TokenType) bool {
	return tt == css.RightParenthesisToken || tt == css.RightBracketToken
}

// split cuts tokens on top level separators reported by sep, separators
// are dropped.
func split(value string, sep func(token) bool) []string {
	var (
		parts []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); len(s) > 0 {
			parts = append(parts, s)
		}
		cur.Reset()
	}
	for _, t := range tokenize(value) {
		switch {
		case opens(t.tt):
			depth++
		case closes(t.tt):
			if depth > 0 {
				depth--
			}
		case depth == 0 && sep(t):
			flush()
			continue
		}
		cur.WriteString(t.data)
	}
	flush()
	return parts
}

// Split breaks a value into its top level space separated components.
// Functions, strings and bracketed groups are kept whole.
func Split(value string) []string {
	return split(value, func(t token) bool { return t.tt == css.WhitespaceToken })
}

// SplitList breaks a value on top level commas.
func SplitList(value string) []string {
	return split(value, func(t token) bool { return t.tt == css.CommaToken })
}

// Normalize collapses whitespace runs to a single space, removes whitespace
// right inside parentheses and before commas and drops comments.
func Normalize(value string) string {
	var (
		b       strings.Builder
		pending bool
		prev    css.TokenType
	)
	for _, t := range tokenize(value) {
		switch t.tt {
		case css.WhitespaceToken, css.CommentToken:
			pending = b.Len() > 0
			continue
		case css.RightParenthesisToken, css.RightBracketToken, css.CommaToken:
			pending = false
		}
		if pending && !opens(prev) {
			b.WriteByte(' ')
		}
		pending = false
		b.WriteString(t.data)
		prev = t.tt
	}
	return b.String()
}

// FormatNumber renders a number with unit. Zero never gets a unit.
func FormatNumber(n float64, unit string) string {
	n = round(n)
	if n == 0 {
		return "0"
	}
	return strconv.FormatFloat(n, 'f', -1, 64) + unit
}

func round(n float64) float64 {
	return math.Round(n*10000) / 10000
}

// PxToRem converts every px dimension in value to rem relative to rootPx.
func PxToRem(value string, rootPx float64) string {
	if rootPx <= 0 || !strings.Contains(value, "px") {
		return value
	}
	var b strings.Builder
	for _, t := range tokenize(value) {
		if t.tt == css.DimensionToken {
			if num, unit := parseDimension(t.data); strings.EqualFold(unit, "px") {
				b.WriteString(FormatNumber(num/rootPx, "rem"))
				continue
			}
		}
		b.WriteString(t.data)
	}
	return b.String()
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}
	if numEnd == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	return num, strings.ToLower(s[numEnd:])
}

// FlipShadow negates horizontal offset of every shadow in a shadow list.
// Second return value is false when nothing was changed.
func FlipShadow(value string) (string, bool) {
	shadows := SplitList(value)
	changed := false
	for i, shadow := range shadows {
		parts := Split(shadow)
		for j, p := range parts {
			if !isLength(p) {
				continue
			}
			if flipped := negate(p); flipped != p {
				parts[j] = flipped
				changed = true
			}
			break
		}
		shadows[i] = strings.Join(parts, " ")
	}
	if !changed {
		return value, false
	}
	return strings.Join(shadows, ", "), true
}

func isLength(s string) bool {
	toks := tokenize(s)
	if len(toks) != 1 {
		return false
	}
	return toks[0].tt == css.DimensionToken || toks[0].tt == css.NumberToken
}

func negate(s string) string {
	num, _ := parseDimension(s)
	switch {
	case num == 0:
		return s
	case strings.HasPrefix(s, "-"):
		return s[1:]
	case strings.HasPrefix(s, "+"):
		return "-" + s[1:]
	default:
		return "-" + s
	}
}
