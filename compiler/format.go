package compiler

import (
	"fmt"
	"slices"
	"strings"

	"atomcss/css"
	"atomcss/style"
	"atomcss/tables"
)

// ValuePrefixer returns vendor variants of a value in output order (most
// specific first, standard last). Nil or empty result keeps value as is.
type ValuePrefixer func(property, value string) []string

// TablePrefixer returns prefixer backed by knowledge tables.
func TablePrefixer(t *tables.Tables) ValuePrefixer {
	return func(property, value string) []string {
		variants, _ := t.ValuePrefix(property, value)
		return variants
	}
}

type formatter struct {
	t       *tables.Tables
	pxToRem bool
	rootPx  float64
	prefix  ValuePrefixer
}

// scalar renders single value of a property.
func (f *formatter) scalar(property string, v style.Value) (string, error) {
	switch v := v.(type) {
	case style.String:
		s := css.Normalize(string(v))
		if f.pxToRem && f.t.ConvertsPxToRem(property) {
			s = css.PxToRem(s, f.rootPx)
		}
		return s, nil
	case style.Number:
		n := float64(v)
		switch {
		case strings.HasPrefix(property, "--"), f.t.IsUnitless(property):
			return css.FormatNumber(n, ""), nil
		case f.t.IsTimeProperty(property):
			return css.FormatNumber(n, "ms"), nil
		case f.pxToRem && f.t.ConvertsPxToRem(property):
			return css.FormatNumber(n/f.rootPx, "rem"), nil
		default:
			return css.FormatNumber(n, "px"), nil
		}
	default:
		return "", fmt.Errorf("'%s': scalar value expected, got %s", property, style.Describe(v))
	}
}

// values renders declarations of a value in output order. Authored
// fallback lists put the preferred value first, the last declaration wins
// in CSS so they are written in reverse. Value prefixer may add vendor
// variants for every scalar, those keep prefixer order.
func (f *formatter) values(property string, v style.Value) ([]string, error) {
	items := []style.Value{v}
	if fb, ok := v.(style.Fallbacks); ok {
		items = slices.Clone(fb)
		slices.Reverse(items)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("'%s': empty fallback list", property)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, err := f.scalar(property, item)
		if err != nil {
			return nil, err
		}
		if f.prefix != nil {
			if variants := f.prefix(property, s); len(variants) > 0 {
				out = append(out, variants...)
				continue
			}
		}
		out = append(out, s)
	}
	return out, nil
}
