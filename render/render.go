// Package render turns manifest contents into the final stylesheet. Output
// order is part of correctness: without layers later rules override earlier
// ones of the same specificity.
package render

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/tidwall/jsonc"
	yaml "gopkg.in/yaml.v3"

	"atomcss/config"
	"atomcss/css"
	"atomcss/manifest"
	"atomcss/selector"
	"atomcss/style"
	"atomcss/tables"
)

const (
	rtlPrefix       = `html[dir="rtl"] `
	layerNamePrefix = "priority"
	// DefaultSeparator marks start of RTL rules when none is configured.
	DefaultSeparator = "/* rtl */"
)

// Usage is a set of rule keys reachable from the application. Nil usage
// keeps every rule.
type Usage map[string]struct{}

// LoadUsage reads JSONC array of rule keys.
func LoadUsage(path string) (Usage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read usage: %w", err)
	}
	var keys []string
	if err := yaml.Unmarshal(jsonc.ToJSON(data), &keys); err != nil {
		return nil, fmt.Errorf("unable to decode usage '%s': %w", path, err)
	}
	u := make(Usage, len(keys))
	for _, k := range keys {
		u[k] = struct{}{}
	}
	return u, nil
}

// Has reports whether rule key is in use.
func (u Usage) Has(key string) bool {
	if u == nil {
		return true
	}
	_, ok := u[key]
	return ok
}

// Options control rendering.
type Options struct {
	Tables    *tables.Tables
	UseLayers bool
	// Separator is a marker line between LTR and RTL rules, empty means
	// DefaultSeparator.
	Separator string
	// Banner is template of the first stylesheet line.
	Banner string
}

// OptionsFrom returns render options for compiler configuration.
func OptionsFrom(cfg *config.CompilerConfig, t *tables.Tables) Options {
	return Options{
		Tables:    t,
		UseLayers: cfg.UseCSSLayers,
		Separator: cmp.Or(cfg.RTLSeparator, DefaultSeparator),
		Banner:    cfg.Banner,
	}
}

// Collect returns class entries of used rules in output order, every class
// name appears once.
func Collect(store manifest.Store, usage Usage) ([]style.AtomicClass, error) {
	rules, err := store.Rules()
	if err != nil {
		return nil, err
	}

	var entries []style.AtomicClass
	for _, r := range rules {
		if !usage.Has(r.Key) {
			continue
		}
		for _, e := range r.Classes {
			if e.Unset || len(e.ClassName) == 0 {
				continue
			}
			entries = append(entries, e)
		}
	}

	slices.SortStableFunc(entries, func(a, b style.AtomicClass) int {
		return cmp.Or(
			cmp.Compare(a.Priority, b.Priority),
			cmp.Compare(a.Property, b.Property),
			cmp.Compare(a.ClassName, b.ClassName),
		)
	})

	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, ok := seen[e.ClassName]; ok {
			continue
		}
		seen[e.ClassName] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

// Tuples renders every entry to its LTR rule text and, when writing
// direction matters for it, RTL rule text.
func Tuples(entries []style.AtomicClass, opts Options) []style.ClassTuple {
	prefixer := selector.NewPrefixer(opts.Tables)

	out := make([]style.ClassTuple, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		ltrProp, ltr, rtlProp, rtl, flipped := directions(opts.Tables, e.Property, e.Values())

		sel := selector.Build(e.ClassName, e.SelectorSuffix, e.PseudoElement, !opts.UseLayers)
		atRules := selector.SplitAtRules(e.AtRule)

		tuple := style.ClassTuple{
			ClassName: e.ClassName,
			Property:  e.Property,
			Priority:  e.Priority,
		}
		rule := css.Rule{Selector: prefixer.Prefix(sel), AtRules: atRules, Decls: decls(ltrProp, ltr)}
		tuple.LTR = rule.String()
		if flipped {
			rule = css.Rule{Selector: prefixer.Prefix(rtlPrefix + sel), AtRules: atRules, Decls: decls(rtlProp, rtl)}
			tuple.RTL = rule.String()
		}
		out = append(out, tuple)
	}
	return out
}

// directions maps logical property and values to physical ones for both
// writing directions.
func directions(t *tables.Tables, property string, values []string) (ltrProp string, ltr []string, rtlProp string, rtl []string, flipped bool) {
	ltrProp, rtlProp = property, property
	if p, ok := t.LogicalProperty(property); ok {
		ltrProp, rtlProp = p.LTR, p.RTL
	}
	flipped = ltrProp != rtlProp

	ltr = make([]string, 0, len(values))
	rtl = make([]string, 0, len(values))
	for _, v := range values {
		l, r := v, v
		if p, ok := t.LogicalValue(property, v); ok {
			l, r = p.LTR, p.RTL
		} else if k, ok := t.FlipKeyword(property, v); ok {
			r = k
		} else if t.FlipsShadow(property) {
			r, _ = css.FlipShadow(v)
		}
		flipped = flipped || l != r
		ltr = append(ltr, l)
		rtl = append(rtl, r)
	}
	return
}

func decls(property string, values []string) []css.Decl {
	out := make([]css.Decl, 0, len(values))
	for _, v := range values {
		out = append(out, css.Decl{Property: property, Value: v})
	}
	return out
}

// LayerName returns cascade layer of a priority band.
func LayerName(priority int) string {
	return layerNamePrefix + strconv.Itoa(priority/1000)
}

// CSS writes sorted tuples: every LTR rule, then separator and every RTL
// rule when there are any.
func CSS(tuples []style.ClassTuple, opts Options) string {
	var sheet css.Stylesheet
	writeTuples(&sheet, tuples, opts)
	return sheet.String()
}

func writeTuples(sheet *css.Stylesheet, tuples []style.ClassTuple, opts Options) {
	ltr := func(t *style.ClassTuple) string { return t.LTR }
	rtl := func(t *style.ClassTuple) string { return t.RTL }

	hasRTL := slices.ContainsFunc(tuples, func(t style.ClassTuple) bool { return len(t.RTL) > 0 })
	separator := cmp.Or(opts.Separator, DefaultSeparator)

	if !opts.UseLayers {
		for i := range tuples {
			sheet.AddText(tuples[i].LTR)
		}
		if hasRTL {
			sheet.AddComment(separator)
			for i := range tuples {
				sheet.AddText(tuples[i].RTL)
			}
		}
		return
	}

	var order []string
	for i := range tuples {
		if name := LayerName(tuples[i].Priority); !slices.Contains(order, name) {
			order = append(order, name)
		}
	}
	sheet.AddLayerOrder(order)
	writeLayers(sheet, tuples, ltr)
	if hasRTL {
		sheet.AddComment(separator)
		writeLayers(sheet, tuples, rtl)
	}
}

// writeLayers groups consecutive tuples of a band, tuples are sorted by
// priority so every band forms a single block.
func writeLayers(sheet *css.Stylesheet, tuples []style.ClassTuple, text func(*style.ClassTuple) string) {
	var (
		name  string
		rules []string
	)
	for i := range tuples {
		n := LayerName(tuples[i].Priority)
		if n != name {
			sheet.AddLayer(name, rules)
			name, rules = n, nil
		}
		if s := text(&tuples[i]); len(s) > 0 {
			rules = append(rules, s)
		}
	}
	sheet.AddLayer(name, rules)
}

// Render produces complete stylesheet of the store: definitions first,
// atomic classes of used rules after them.
func Render(store manifest.Store, usage Usage, opts Options) (string, error) {
	defs, err := store.Defs()
	if err != nil {
		return "", err
	}
	entries, err := Collect(store, usage)
	if err != nil {
		return "", err
	}

	var sheet css.Stylesheet
	if len(opts.Banner) > 0 {
		banner, err := expandBanner(opts.Banner, bannerValues(len(entries), len(defs), opts.UseLayers))
		if err != nil {
			return "", err
		}
		sheet.AddComment(banner)
	}
	for _, d := range defs {
		sheet.AddText(d.CSS)
	}
	writeTuples(&sheet, Tuples(entries, opts), opts)
	return sheet.String(), nil
}
