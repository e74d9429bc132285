package style

import "strings"

// AtomicClass is a compiled single property, single condition class.
type AtomicClass struct {
	Property       string   `yaml:"property"`
	ClassName      string   `yaml:"class_name,omitempty"`
	Value          string   `yaml:"value,omitempty"`
	SelectorSuffix string   `yaml:"selector_suffix,omitempty"`
	PseudoElement  string   `yaml:"pseudo_element,omitempty"`
	FallbackValues []string `yaml:"fallback_values,omitempty"`
	AtRule         string   `yaml:"at_rule,omitempty"`
	Priority       int      `yaml:"priority"`
	// Unset entries take part in class map bookkeeping only.
	Unset bool `yaml:"unset,omitempty"`
}

// Key is the class map key of the entry: property scoped by pseudo-element.
func (a *AtomicClass) Key() string {
	return a.Property + a.PseudoElement
}

// Values returns the value followed by its fallbacks.
func (a *AtomicClass) Values() []string {
	if a.Unset {
		return nil
	}
	return append([]string{a.Value}, a.FallbackValues...)
}

// ClassMap groups class names by key, classes of conditional branches are
// space separated. Unset keys map to empty string.
func ClassMap(entries []AtomicClass) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		cur, ok := m[e.Key()]
		switch {
		case !ok || len(cur) == 0:
			m[e.Key()] = e.ClassName
		case len(e.ClassName) > 0 && !strings.Contains(" "+cur+" ", " "+e.ClassName+" "):
			m[e.Key()] = cur + " " + e.ClassName
		}
	}
	return m
}

// ClassTuple is the reduced render-ready projection of an entry.
type ClassTuple struct {
	ClassName string
	Property  string
	Priority  int
	LTR       string
	RTL       string
}
