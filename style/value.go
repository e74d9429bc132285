// Package style defines the data model shared by all compiler stages:
// authored declarations, rule sources with includes, compiled atomic class
// entries and render-ready class tuples.
package style

import (
	"strconv"
	"strings"
)

// DefaultCondition is the reserved key of the unconditional branch in a
// conditional value.
const DefaultCondition = "default"

// Value is one of String, Number, Null, Fallbacks, Conditional or Block.
type Value interface {
	isValue()
}

// String is a scalar CSS value as authored.
type String string

// Number is a scalar numeric value, units are added during formatting.
type Number float64

// Null is the unset marker: the property gets a class map entry but no class
// and no CSS.
type Null struct{}

// Fallbacks is an ordered list of scalar values emitted as consecutive
// declarations inside one rule.
type Fallbacks []Value

// Branch is a single (condition, value) pair of a conditional value.
type Branch struct {
	Condition string
	Value     Value
}

// Conditional maps condition selectors to values preserving authored order.
type Conditional []Branch

// Block is a declaration nested under a pseudo-element key.
type Block Declaration

func (String) isValue()      {}
func (Number) isValue()      {}
func (Null) isValue()        {}
func (Fallbacks) isValue()   {}
func (Conditional) isValue() {}
func (Block) isValue()       {}

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// IsConditional reports whether v is a map keyed by condition selectors.
func IsConditional(v Value) bool {
	_, ok := v.(Conditional)
	return ok
}

// IsNull reports whether v is the unset marker.
func IsNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}

// Get returns the value of the given condition.
func (c Conditional) Get(condition string) (Value, bool) {
	for _, b := range c {
		if b.Condition == condition {
			return b.Value, true
		}
	}
	return nil, false
}

// Describe renders a value for diagnostics and debug output. It is not used
// to produce CSS.
func Describe(v Value) string {
	switch v := v.(type) {
	case String:
		return strconv.Quote(string(v))
	case Number:
		return v.String()
	case Null:
		return "null"
	case Fallbacks:
		parts := make([]string, 0, len(v))
		for _, f := range v {
			parts = append(parts, Describe(f))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Conditional:
		parts := make([]string, 0, len(v))
		for _, b := range v {
			parts = append(parts, strconv.Quote(b.Condition)+": "+Describe(b.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case Block:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, p.Name+": "+Describe(p.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<nil>"
	}
}
