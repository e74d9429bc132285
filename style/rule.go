package style

import "fmt"

// Ref points to a rule to include. Empty Module means the rule belongs to
// the including module.
type Ref struct {
	Module string
	Rule   string
}

// Key returns the fully-qualified name of the referenced rule relative to
// owner.
func (r Ref) Key(owner string) string {
	if len(r.Module) == 0 {
		return Key(owner, r.Rule)
	}
	return Key(r.Module, r.Rule)
}

func (r Ref) String() string {
	if len(r.Module) == 0 {
		return ":" + r.Rule
	}
	return fmt.Sprintf("{%s, %s}", r.Module, r.Rule)
}

// Part is one item of a rule body: either an include or a declaration.
type Part struct {
	Include *Ref
	Decl    Declaration
}

// RuleSource is an authored rule as a list of parts merged in order.
type RuleSource struct {
	Module string
	Name   string
	Parts  []Part
}

// Key returns the fully-qualified rule name.
func (r *RuleSource) Key() string {
	return Key(r.Module, r.Name)
}

// Key joins module and entity name into a fully-qualified name.
func Key(module, name string) string {
	return module + "." + name
}

// VarGroup is a named set of custom properties.
type VarGroup struct {
	Name   string
	Values Declaration
}

// Frame is a selector keyed declaration (keyframe steps, view transition
// pseudo-elements).
type Frame struct {
	Selector string
	Decl     Declaration
}

// Keyframes is an animation definition.
type Keyframes struct {
	Name   string
	Frames []Frame
}

// Theme overrides values of a var group.
type Theme struct {
	Name   string
	Vars   Ref
	Values Declaration
}

// PositionTry is an anchor positioning fallback.
type PositionTry struct {
	Name string
	Decl Declaration
}

// ViewTransition describes styles of view transition pseudo-elements
// (group, image-pair, old, new).
type ViewTransition struct {
	Name   string
	Frames []Frame
}

// Module is a compilation unit.
type Module struct {
	Name            string
	Rules           []RuleSource
	Vars            []VarGroup
	Keyframes       []Keyframes
	Themes          []Theme
	PositionTry     []PositionTry
	ViewTransitions []ViewTransition
}

// Rule returns the local rule with the given name.
func (m *Module) Rule(name string) (*RuleSource, bool) {
	for i := range m.Rules {
		if m.Rules[i].Name == name {
			return &m.Rules[i], true
		}
	}
	return nil, false
}

// Dependencies returns names of other modules this module includes from, in
// order of first reference.
func (m *Module) Dependencies() []string {
	var deps []string
	seen := map[string]bool{m.Name: true}
	add := func(name string) {
		if len(name) > 0 && !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
	}
	for _, r := range m.Rules {
		for _, p := range r.Parts {
			if p.Include != nil {
				add(p.Include.Module)
			}
		}
	}
	for _, t := range m.Themes {
		add(t.Vars.Module)
	}
	return deps
}
