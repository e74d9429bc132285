// Package manifest is the cross-module store of compiled style entities.
// Records are keyed by fully-qualified name and written as upserts:
// rewriting an identical record is a no-op, rewriting a different one is a
// conflict.
package manifest

import (
	"fmt"
	"sort"

	"atomcss/style"
)

// Kind is a type of non-class definition.
type Kind string

const (
	KindVars           Kind = "vars"
	KindKeyframes      Kind = "keyframes"
	KindTheme          Kind = "theme"
	KindPositionTry    Kind = "position-try"
	KindViewTransition Kind = "view-transition"
)

// Rule is a compiled rule: its authored parts (so other modules can
// include it) and atomic classes it produced.
type Rule struct {
	Key     string              `yaml:"key"`
	Module  string              `yaml:"module"`
	Name    string              `yaml:"name"`
	Parts   []style.Part        `yaml:"-"`
	Classes []style.AtomicClass `yaml:"classes"`
}

// Source returns rule as an includable source.
func (r *Rule) Source() *style.RuleSource {
	return &style.RuleSource{Module: r.Module, Name: r.Name, Parts: r.Parts}
}

// ClassMap returns class names of the rule keyed by property.
func (r *Rule) ClassMap() map[string]string {
	return style.ClassMap(r.Classes)
}

// Def is a compiled non-class entity: vars group, keyframes, theme,
// position-try or view transition.
type Def struct {
	Kind Kind   `yaml:"kind"`
	Key  string `yaml:"key"`
	// Name is generated identifier (custom property prefix, animation
	// name, class name).
	Name string `yaml:"name"`
	// Vars maps authored var names to generated custom properties.
	Vars     map[string]string `yaml:"vars,omitempty"`
	CSS      string            `yaml:"css"`
	Priority int               `yaml:"priority"`
}

// ID is unique identity of a definition across kinds.
func (d *Def) ID() string {
	return string(d.Kind) + ":" + d.Key
}

// Store keeps compiled records.
type Store interface {
	// Commit writes a unit of records atomically. When any record
	// conflicts with already stored one nothing is written.
	Commit(rules []*Rule, defs []*Def) error
	// Rule returns rule by its fully-qualified name.
	Rule(key string) (*Rule, bool, error)
	// Def returns definition by kind and fully-qualified name.
	Def(kind Kind, key string) (*Def, bool, error)
	// Rules returns all rules ordered by key.
	Rules() ([]*Rule, error)
	// Defs returns all definitions ordered by priority and identity.
	Defs() ([]*Def, error)
	Close() error
}

// ConflictError is returned when a record is rewritten with a different
// value.
type ConflictError struct {
	Key string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("manifest conflict: '%s' is already stored with a different value", e.Key)
}

func sortDefs(defs []*Def) {
	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].Priority != defs[j].Priority {
			return defs[i].Priority < defs[j].Priority
		}
		return defs[i].ID() < defs[j].ID()
	})
}

func sortRules(rules []*Rule) {
	sort.Slice(rules, func(i, j int) bool { return rules[i].Key < rules[j].Key })
}
