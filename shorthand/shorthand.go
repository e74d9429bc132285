// Package shorthand implements handling of CSS shorthand properties. Exactly
// one strategy is active per compilation, selected by configuration.
package shorthand

import (
	"fmt"
	"slices"
	"strings"

	"atomcss/config"
	"atomcss/style"
	"atomcss/tables"
)

// Strategy names as used in configuration.
const (
	Expand = "expand"
	Keep   = "keep"
	Reject = "reject"
)

// DefaultMessage is reported for disallowed shorthands without a
// configured message, %s is replaced by property name.
const DefaultMessage = "'%s' is not supported. Use longhand properties instead."

// Strategy turns a single authored property into one or more properties.
type Strategy interface {
	// Name returns configuration name of the strategy.
	Name() string
	// ExpandDeclaration handles a property with a non-conditional value.
	ExpandDeclaration(property string, value style.Value) ([]style.Prop, error)
	// ExpandConditions handles a property with conditional value, produced
	// properties carry conditional values keyed by original conditions.
	ExpandConditions(property, cssProperty string, conditions style.Conditional) ([]style.Prop, error)
}

// DisallowedError is returned by reject strategy.
type DisallowedError struct {
	Property string
	Message  string
}

func (e *DisallowedError) Error() string {
	return e.Message
}

// New selects strategy according to configuration.
func New(cfg *config.ShorthandsConfig, t *tables.Tables) (Strategy, error) {
	switch cfg.Strategy {
	case Expand, "":
		return &expandStrategy{t: t}, nil
	case Keep:
		return &keepStrategy{t: t}, nil
	case Reject:
		return newRejectStrategy(cfg, t), nil
	default:
		return nil, fmt.Errorf("unknown shorthand strategy '%s'", cfg.Strategy)
	}
}

// expandStrategy decomposes registered shorthands into longhands.
type expandStrategy struct {
	t *tables.Tables
}

func (s *expandStrategy) Name() string { return Expand }

func (s *expandStrategy) ExpandDeclaration(property string, value style.Value) ([]style.Prop, error) {
	if c, ok := value.(style.Conditional); ok {
		return s.ExpandConditions(property, property, c)
	}
	sh, ok := s.t.Shorthand(property)
	if !ok {
		return []style.Prop{{Name: property, Value: value}}, nil
	}

	values, err := s.split(property, sh, value)
	if err != nil {
		return nil, err
	}

	var out []style.Prop
	for i, longhand := range sh.Longhands {
		// longhands may be shorthands themselves (border -> border-width)
		props, err := s.ExpandDeclaration(longhand, values[i])
		if err != nil {
			return nil, err
		}
		out = append(out, props...)
	}
	return out, nil
}

// split returns one value per longhand.
func (s *expandStrategy) split(property string, sh tables.Shorthand, value style.Value) ([]style.Value, error) {
	out := make([]style.Value, len(sh.Longhands))
	switch v := value.(type) {
	case style.Null:
		for i := range out {
			out[i] = style.Null{}
		}
	case style.Number:
		for i := range out {
			out[i] = v
			if sh.Kind == "border" && i > 0 {
				out[i] = style.Null{}
			}
		}
	case style.String:
		fn, ok := registry[sh.Kind]
		if !ok {
			return nil, fmt.Errorf("'%s': unknown expansion kind '%s'", property, sh.Kind)
		}
		parts, err := fn(string(v), sh.Longhands)
		if err != nil {
			return nil, fmt.Errorf("'%s': %w", property, err)
		}
		for i, p := range parts {
			if len(p) == 0 {
				out[i] = style.Null{}
			} else {
				out[i] = style.String(p)
			}
		}
	case style.Fallbacks:
		per := make([]style.Fallbacks, len(out))
		for _, f := range v {
			vals, err := s.split(property, sh, f)
			if err != nil {
				return nil, err
			}
			for i := range vals {
				if !style.IsNull(vals[i]) {
					per[i] = append(per[i], vals[i])
				}
			}
		}
		for i := range out {
			switch len(per[i]) {
			case 0:
				out[i] = style.Null{}
			case 1:
				out[i] = per[i][0]
			default:
				out[i] = per[i]
			}
		}
	default:
		return nil, fmt.Errorf("'%s': unsupported value %s", property, style.Describe(value))
	}
	return out, nil
}

func (s *expandStrategy) ExpandConditions(property, cssProperty string, conditions style.Conditional) ([]style.Prop, error) {
	if _, ok := s.t.Shorthand(cssProperty); !ok {
		return []style.Prop{{Name: cssProperty, Value: conditions}}, nil
	}
	return regroup(conditions, func(v style.Value) ([]style.Prop, error) {
		return s.ExpandDeclaration(cssProperty, v)
	})
}

// regroup expands every branch separately and merges results per produced
// property preserving branch association. Branches without condition are
// collected under default.
func regroup(conditions style.Conditional, expand func(style.Value) ([]style.Prop, error)) ([]style.Prop, error) {
	var (
		order   []string
		grouped = make(map[string]style.Conditional)
	)
	for _, b := range conditions {
		props, err := expand(b.Value)
		if err != nil {
			return nil, err
		}
		cond := b.Condition
		if len(cond) == 0 {
			cond = style.DefaultCondition
		}
		for _, p := range props {
			if _, ok := grouped[p.Name]; !ok {
				order = append(order, p.Name)
			}
			grouped[p.Name] = append(grouped[p.Name], style.Branch{Condition: cond, Value: p.Value})
		}
	}

	out := make([]style.Prop, 0, len(order))
	for _, name := range order {
		out = append(out, style.Prop{Name: name, Value: grouped[name]})
	}
	return out, nil
}

// keepStrategy preserves shorthands and adds explicit null resets for
// longhands they override.
type keepStrategy struct {
	t *tables.Tables
}

func (s *keepStrategy) Name() string { return Keep }

func (s *keepStrategy) ExpandDeclaration(property string, value style.Value) ([]style.Prop, error) {
	return s.withResets(property, value), nil
}

func (s *keepStrategy) ExpandConditions(_, cssProperty string, conditions style.Conditional) ([]style.Prop, error) {
	return s.withResets(cssProperty, conditions), nil
}

func (s *keepStrategy) withResets(property string, value style.Value) []style.Prop {
	resets := s.t.ResetsFor(property)
	out := make([]style.Prop, 0, len(resets)+1)
	out = append(out, style.Prop{Name: property, Value: value})
	for _, r := range resets {
		if r == property {
			continue
		}
		out = append(out, style.Prop{Name: r, Value: style.Null{}})
	}
	return out
}

// rejectStrategy fails on shorthands from deny-set and passes everything
// else through unchanged.
type rejectStrategy struct {
	t          *tables.Tables
	disallowed []string
	message    string
}

func newRejectStrategy(cfg *config.ShorthandsConfig, t *tables.Tables) *rejectStrategy {
	return &rejectStrategy{t: t, disallowed: cfg.Disallowed, message: cfg.Message}
}

func (s *rejectStrategy) Name() string { return Reject }

func (s *rejectStrategy) check(property string) error {
	var tableMsg string
	if len(s.disallowed) > 0 {
		if !slices.Contains(s.disallowed, property) {
			return nil
		}
	} else {
		msg, ok := s.t.DisallowedMessage(property)
		if !ok {
			return nil
		}
		tableMsg = msg
	}

	var msg string
	switch {
	case len(s.message) > 0:
		msg = strings.ReplaceAll(s.message, "%s", property)
	case len(tableMsg) > 0:
		msg = tableMsg
	default:
		msg = fmt.Sprintf(DefaultMessage, property)
	}
	return &DisallowedError{Property: property, Message: msg}
}

func (s *rejectStrategy) ExpandDeclaration(property string, value style.Value) ([]style.Prop, error) {
	if err := s.check(property); err != nil {
		return nil, err
	}
	return []style.Prop{{Name: property, Value: value}}, nil
}

func (s *rejectStrategy) ExpandConditions(_, cssProperty string, conditions style.Conditional) ([]style.Prop, error) {
	if err := s.check(cssProperty); err != nil {
		return nil, err
	}
	return []style.Prop{{Name: cssProperty, Value: conditions}}, nil
}
