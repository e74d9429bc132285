// Package priority computes cascade order of atomic classes.
package priority

import (
	"strings"

	"atomcss/selector"
	"atomcss/tables"
)

// BandSize is the width of a coarse priority band, one band becomes one
// cascade layer.
const BandSize = 1000

// Assigner derives priorities from the knowledge tables.
type Assigner struct {
	t *tables.Tables
}

// New creates priority assigner.
func New(t *tables.Tables) *Assigner {
	return &Assigner{t: t}
}

// Property returns the weight of the property category.
func (a *Assigner) Property(property string) int {
	p := a.t.Priorities
	switch {
	case strings.HasPrefix(property, "--"):
		return p.CustomProperty
	case a.t.IsShorthandOfShorthands(property):
		return p.ShorthandsOfShorthands
	case a.t.IsShorthandOfLonghands(property):
		return p.ShorthandsOfLonghands
	case a.t.IsPhysicalLonghand(property):
		return p.LonghandPhysical
	default:
		return p.LonghandLogical
	}
}

// PseudoClass returns weight of a single pseudo-class token, functional
// pseudo-classes are looked up by name.
func (a *Assigner) PseudoClass(token string) int {
	if w, ok := a.t.Priorities.PseudoClasses[selector.Name(token)]; ok {
		return w
	}
	return a.t.Priorities.PseudoClassDefault
}

// AtRule returns weight of a single at-rule, unknown at-rules weigh nothing.
func (a *Assigner) AtRule(rule string) int {
	return a.t.Priorities.AtRules[selector.AtRuleName(rule)]
}

// Of computes priority of an entry: property category plus weights of its
// pseudo-classes, pseudo-element and at-rules.
func (a *Assigner) Of(property string, pseudos []string, pseudoElement string, atRules []string) int {
	prio := a.Property(property)
	for _, p := range pseudos {
		if selector.IsPseudoElement(p) {
			continue
		}
		prio += a.PseudoClass(p)
	}
	if len(pseudoElement) > 0 {
		prio += a.t.Priorities.PseudoElement
	}
	for _, r := range atRules {
		prio += a.AtRule(r)
	}
	return prio
}

// Band returns the coarse priority bucket.
func Band(p int) int {
	return p / BandSize
}
