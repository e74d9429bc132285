// Package tables holds the data-driven knowledge the compiler is
// parameterized by: property categories, pseudo-class weights, unit rules,
// logical property mappings, shorthand registry, selector and value vendor
// prefixes. Tables are loaded once and never modified afterwards.
package tables

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sync"

	yaml "gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTables []byte

// Pair is an LTR/RTL replacement pair.
type Pair struct {
	LTR string `yaml:"ltr"`
	RTL string `yaml:"rtl"`
}

// Shorthand describes how a shorthand property decomposes.
type Shorthand struct {
	Kind      string   `yaml:"kind"`
	Longhands []string `yaml:"longhands"`
	// Resets lists longhands explicitly nulled when the shorthand is kept.
	// Defaults to Longhands when empty.
	Resets []string `yaml:"resets"`
}

// SelectorPrefix maps a pseudo token to its browser specific variants.
type SelectorPrefix struct {
	Match    string   `yaml:"match"`
	Variants []string `yaml:"variants"`
}

type Priorities struct {
	CustomProperty         int            `yaml:"custom_property"`
	ShorthandsOfShorthands int            `yaml:"shorthands_of_shorthands"`
	ShorthandsOfLonghands  int            `yaml:"shorthands_of_longhands"`
	LonghandLogical        int            `yaml:"longhand_logical"`
	LonghandPhysical       int            `yaml:"longhand_physical"`
	PseudoElement          int            `yaml:"pseudo_element"`
	PseudoClassDefault     int            `yaml:"pseudo_class_default"`
	AtRules                map[string]int `yaml:"at_rules"`
	PseudoClasses          map[string]int `yaml:"pseudo_classes"`
}

type RTLFlip struct {
	Shadows  []string                     `yaml:"shadows"`
	Keywords map[string]map[string]string `yaml:"keywords"`
}

// Tables is the immutable knowledge base. Use lookup methods rather than
// touching the raw fields.
type Tables struct {
	Version                int                            `yaml:"version"`
	Priorities             Priorities                     `yaml:"priorities"`
	ShorthandsOfShorthands []string                       `yaml:"shorthands_of_shorthands"`
	ShorthandsOfLonghands  []string                       `yaml:"shorthands_of_longhands"`
	LonghandsPhysical      []string                       `yaml:"longhands_physical"`
	Unitless               []string                       `yaml:"unitless"`
	TimeProperties         []string                       `yaml:"time_properties"`
	PxToRemProperties      []string                       `yaml:"px_to_rem_properties"`
	LogicalProperties      map[string]Pair                `yaml:"logical_properties"`
	LogicalValues          map[string]map[string]Pair     `yaml:"logical_values"`
	RTLFlip                RTLFlip                        `yaml:"rtl_flip"`
	Shorthands             map[string]Shorthand           `yaml:"shorthands"`
	DisallowedShorthands   map[string]string              `yaml:"disallowed_shorthands"`
	SelectorPrefixes       []SelectorPrefix               `yaml:"selector_prefixes"`
	ValuePrefixes          map[string]map[string][]string `yaml:"value_prefixes"`
	KnownProperties        []string                       `yaml:"known_properties"`

	shOfSh     set
	shOfLong   set
	physical   set
	unitless   set
	time       set
	pxToRem    set
	shadowFlip set
	known      set
}

type set map[string]struct{}

func newSet(items []string) set {
	s := make(set, len(items))
	for _, i := range items {
		s[i] = struct{}{}
	}
	return s
}

func (s set) has(k string) bool {
	_, ok := s[k]
	return ok
}

var (
	defaultOnce sync.Once
	defaultTbl  *Tables
	defaultErr  error
)

// Default returns tables built from the embedded asset. Parsing happens
// once per process.
func Default() (*Tables, error) {
	defaultOnce.Do(func() {
		defaultTbl, defaultErr = Parse(defaultTables)
	})
	return defaultTbl, defaultErr
}

// MustDefault is Default for callers which cannot recover from a broken
// embedded asset (tests, package level initialization).
func MustDefault() *Tables {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads tables from file, an empty path returns the embedded tables.
func Load(path string) (*Tables, error) {
	if len(path) == 0 {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read tables: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("unable to load tables from '%s': %w", path, err)
	}
	return t, nil
}

// Parse decodes and indexes a tables document.
func Parse(data []byte) (*Tables, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	t := &Tables{}
	if err := dec.Decode(t); err != nil {
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}
	if t.Version != 1 {
		return nil, fmt.Errorf("unsupported tables version %d", t.Version)
	}
	for name, sh := range t.Shorthands {
		if len(sh.Longhands) == 0 {
			return nil, fmt.Errorf("shorthand '%s' has no longhands", name)
		}
	}
	for _, p := range t.SelectorPrefixes {
		if len(p.Match) == 0 || len(p.Variants) == 0 {
			return nil, fmt.Errorf("malformed selector prefix entry '%s'", p.Match)
		}
	}

	t.shOfSh = newSet(t.ShorthandsOfShorthands)
	t.shOfLong = newSet(t.ShorthandsOfLonghands)
	t.physical = newSet(t.LonghandsPhysical)
	t.unitless = newSet(t.Unitless)
	t.time = newSet(t.TimeProperties)
	t.pxToRem = newSet(t.PxToRemProperties)
	t.shadowFlip = newSet(t.RTLFlip.Shadows)
	t.known = newSet(t.KnownProperties)
	return t, nil
}

func (t *Tables) IsShorthandOfShorthands(prop string) bool { return t.shOfSh.has(prop) }
func (t *Tables) IsShorthandOfLonghands(prop string) bool  { return t.shOfLong.has(prop) }
func (t *Tables) IsPhysicalLonghand(prop string) bool      { return t.physical.has(prop) }
func (t *Tables) IsUnitless(prop string) bool              { return t.unitless.has(prop) }
func (t *Tables) IsTimeProperty(prop string) bool          { return t.time.has(prop) }
func (t *Tables) ConvertsPxToRem(prop string) bool         { return t.pxToRem.has(prop) }
func (t *Tables) FlipsShadow(prop string) bool             { return t.shadowFlip.has(prop) }
func (t *Tables) IsKnownProperty(prop string) bool         { return t.known.has(prop) }

// Shorthand returns expansion data for a registered shorthand.
func (t *Tables) Shorthand(prop string) (Shorthand, bool) {
	sh, ok := t.Shorthands[prop]
	return sh, ok
}

// ResetsFor returns longhands that must be nulled when prop is kept as a
// shorthand.
func (t *Tables) ResetsFor(prop string) []string {
	sh, ok := t.Shorthands[prop]
	if !ok {
		return nil
	}
	if len(sh.Resets) > 0 {
		return sh.Resets
	}
	return sh.Longhands
}

// LogicalProperty returns physical replacements for a logical property.
func (t *Tables) LogicalProperty(prop string) (Pair, bool) {
	p, ok := t.LogicalProperties[prop]
	return p, ok
}

// LogicalValue returns physical replacements for a logical keyword value.
func (t *Tables) LogicalValue(prop, value string) (Pair, bool) {
	vals, ok := t.LogicalValues[prop]
	if !ok {
		return Pair{}, false
	}
	p, ok := vals[value]
	return p, ok
}

// FlipKeyword returns RTL replacement for a direction sensitive keyword.
func (t *Tables) FlipKeyword(prop, value string) (string, bool) {
	kw, ok := t.RTLFlip.Keywords[prop]
	if !ok {
		return "", false
	}
	v, ok := kw[value]
	return v, ok
}

// ValuePrefix returns prefixed variants for a value in output order.
func (t *Tables) ValuePrefix(prop, value string) ([]string, bool) {
	vals, ok := t.ValuePrefixes[prop]
	if !ok {
		return nil, false
	}
	v, ok := vals[value]
	return v, ok
}

// StandardValue returns the value a vendor variant of value is generated
// from. Standard form itself is not reported.
func (t *Tables) StandardValue(prop, value string) (string, bool) {
	for std, variants := range t.ValuePrefixes[prop] {
		if value != std && slices.Contains(variants, value) {
			return std, true
		}
	}
	return "", false
}

// DisallowedMessage reports whether prop is in the default deny-set and the
// message associated with it (may be empty).
func (t *Tables) DisallowedMessage(prop string) (string, bool) {
	msg, ok := t.DisallowedShorthands[prop]
	return msg, ok
}
