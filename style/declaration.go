package style

import (
	"strings"
	"unicode"
)

// Prop is a single property of a declaration.
type Prop struct {
	Name  string
	Value Value
}

// Declaration is an ordered property map.
type Declaration []Prop

// Get returns the value of the named property.
func (d Declaration) Get(name string) (Value, bool) {
	for _, p := range d {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Set replaces the whole value of an existing property in place or appends
// a new one.
func (d Declaration) Set(name string, v Value) Declaration {
	for i := range d {
		if d[i].Name == name {
			d[i].Value = v
			return d
		}
	}
	return append(d, Prop{Name: name, Value: v})
}

// Merge applies other on top of d, last wins per property.
func (d Declaration) Merge(other Declaration) Declaration {
	for _, p := range other {
		d = d.Set(p.Name, p.Value)
	}
	return d
}

// Clone returns a shallow copy which can be modified with Set without
// affecting the original.
func (d Declaration) Clone() Declaration {
	if d == nil {
		return nil
	}
	out := make(Declaration, len(d))
	copy(out, d)
	return out
}

// Names returns property names in order.
func (d Declaration) Names() []string {
	names := make([]string, 0, len(d))
	for _, p := range d {
		names = append(names, p.Name)
	}
	return names
}

// IsPseudoElement reports whether a declaration key introduces a
// pseudo-element block.
func IsPseudoElement(key string) bool {
	return strings.HasPrefix(key, "::")
}

// CSSProperty canonicalizes an authored property name to kebab-case.
// snake_case and camelCase are accepted, a leading capital denotes a vendor
// prefix (WebkitAppearance -> -webkit-appearance). Custom properties are
// returned unchanged.
func CSSProperty(name string) string {
	if strings.HasPrefix(name, "--") {
		return name
	}

	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		switch {
		case r == '_':
			b.WriteByte('-')
		case unicode.IsUpper(r):
			if i > 0 || !strings.HasPrefix(name, "-") {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
