package style

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	yaml "gopkg.in/yaml.v3"
)

// DecodeModule parses a module authored as JSONC. Comments and trailing
// commas are allowed, key order is preserved.
func DecodeModule(data []byte) (*Module, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, fmt.Errorf("parsing module: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("parsing module: empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errorAt(root, "module must be an object")
	}

	m := &Module{}
	err := eachPair(root, func(key string, val *yaml.Node) error {
		var err error
		switch key {
		case "module":
			m.Name, err = scalar(val)
		case "rules":
			err = eachPair(val, func(name string, body *yaml.Node) error {
				parts, err := decodeParts(body)
				if err != nil {
					return fmt.Errorf("rule '%s': %w", name, err)
				}
				m.Rules = append(m.Rules, RuleSource{Name: name, Parts: parts})
				return nil
			})
		case "vars":
			err = eachPair(val, func(name string, body *yaml.Node) error {
				decl, err := decodeDeclaration(body)
				if err != nil {
					return fmt.Errorf("vars '%s': %w", name, err)
				}
				m.Vars = append(m.Vars, VarGroup{Name: name, Values: decl})
				return nil
			})
		case "keyframes":
			err = eachPair(val, func(name string, body *yaml.Node) error {
				frames, err := decodeFrames(body)
				if err != nil {
					return fmt.Errorf("keyframes '%s': %w", name, err)
				}
				m.Keyframes = append(m.Keyframes, Keyframes{Name: name, Frames: frames})
				return nil
			})
		case "themes":
			err = eachPair(val, func(name string, body *yaml.Node) error {
				theme, err := decodeTheme(name, body)
				if err != nil {
					return fmt.Errorf("theme '%s': %w", name, err)
				}
				m.Themes = append(m.Themes, theme)
				return nil
			})
		case "position_try":
			err = eachPair(val, func(name string, body *yaml.Node) error {
				decl, err := decodeDeclaration(body)
				if err != nil {
					return fmt.Errorf("position_try '%s': %w", name, err)
				}
				m.PositionTry = append(m.PositionTry, PositionTry{Name: name, Decl: decl})
				return nil
			})
		case "view_transitions":
			err = eachPair(val, func(name string, body *yaml.Node) error {
				frames, err := decodeFrames(body)
				if err != nil {
					return fmt.Errorf("view_transitions '%s': %w", name, err)
				}
				m.ViewTransitions = append(m.ViewTransitions, ViewTransition{Name: name, Frames: frames})
				return nil
			})
		default:
			err = errorAt(val, "unknown module section '%s'", key)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(m.Name) == 0 {
		return nil, fmt.Errorf("module name is missing")
	}

	for i := range m.Rules {
		m.Rules[i].Module = m.Name
	}
	for i := range m.Themes {
		if len(m.Themes[i].Vars.Module) == 0 {
			m.Themes[i].Vars.Module = m.Name
		}
	}
	return m, nil
}

func decodeParts(node *yaml.Node) ([]Part, error) {
	switch node.Kind {
	case yaml.MappingNode:
		decl, err := decodeDeclaration(node)
		if err != nil {
			return nil, err
		}
		return []Part{{Decl: decl}}, nil
	case yaml.SequenceNode:
		parts := make([]Part, 0, len(node.Content))
		for _, item := range node.Content {
			if ref, ok, err := decodeInclude(item); err != nil {
				return nil, err
			} else if ok {
				parts = append(parts, Part{Include: ref})
				continue
			}
			decl, err := decodeDeclaration(item)
			if err != nil {
				return nil, err
			}
			parts = append(parts, Part{Decl: decl})
		}
		return parts, nil
	default:
		return nil, errorAt(node, "rule body must be an object or a list")
	}
}

// decodeInclude recognizes {"include": "name"} and
// {"include": {"module": "M", "rule": "name"}}.
func decodeInclude(node *yaml.Node) (*Ref, bool, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 || node.Content[0].Value != "include" {
		return nil, false, nil
	}
	val := node.Content[1]
	ref, err := decodeRef(val)
	if err != nil {
		return nil, false, err
	}
	return ref, true, nil
}

func decodeRef(val *yaml.Node) (*Ref, error) {
	switch val.Kind {
	case yaml.ScalarNode:
		name := strings.TrimPrefix(val.Value, ":")
		if len(name) == 0 {
			return nil, errorAt(val, "empty include")
		}
		return &Ref{Rule: name}, nil
	case yaml.MappingNode:
		ref := &Ref{}
		err := eachPair(val, func(key string, v *yaml.Node) error {
			var err error
			switch key {
			case "module":
				ref.Module, err = scalar(v)
			case "rule":
				ref.Rule, err = scalar(v)
				ref.Rule = strings.TrimPrefix(ref.Rule, ":")
			default:
				err = errorAt(v, "unexpected include key '%s'", key)
			}
			return err
		})
		if err != nil {
			return nil, err
		}
		if len(ref.Rule) == 0 {
			return nil, errorAt(val, "include without rule name")
		}
		return ref, nil
	default:
		return nil, errorAt(val, "malformed include")
	}
}

func decodeDeclaration(node *yaml.Node) (Declaration, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errorAt(node, "declaration must be an object")
	}
	var decl Declaration
	err := eachPair(node, func(key string, val *yaml.Node) error {
		if IsPseudoElement(key) && val.Kind == yaml.MappingNode {
			inner, err := decodeDeclaration(val)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			decl = decl.Set(key, Block(inner))
			return nil
		}
		v, err := decodeValue(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		decl = decl.Set(key, v)
		return nil
	})
	return decl, err
}

func decodeValue(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return decodeScalar(node)
	case yaml.SequenceNode:
		vals := make(Fallbacks, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, errorAt(item, "fallback values must be scalars")
			}
			v, err := decodeScalar(item)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return vals, nil
	case yaml.MappingNode:
		var cond Conditional
		err := eachPair(node, func(key string, val *yaml.Node) error {
			v, err := decodeValue(val)
			if err != nil {
				return err
			}
			cond = append(cond, Branch{Condition: key, Value: v})
			return nil
		})
		return cond, err
	default:
		return nil, errorAt(node, "unsupported value")
	}
}

func decodeScalar(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Null{}, nil
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return nil, errorAt(node, "bad number '%s'", node.Value)
		}
		return Number(f), nil
	case "!!str":
		return String(node.Value), nil
	default:
		return nil, errorAt(node, "unsupported scalar '%s'", node.Value)
	}
}

func decodeFrames(node *yaml.Node) ([]Frame, error) {
	var frames []Frame
	err := eachPair(node, func(sel string, body *yaml.Node) error {
		decl, err := decodeDeclaration(body)
		if err != nil {
			return fmt.Errorf("%s: %w", sel, err)
		}
		frames = append(frames, Frame{Selector: sel, Decl: decl})
		return nil
	})
	return frames, err
}

func decodeTheme(name string, node *yaml.Node) (Theme, error) {
	theme := Theme{Name: name}
	err := eachPair(node, func(key string, val *yaml.Node) error {
		switch key {
		case "vars":
			s, err := scalar(val)
			if err != nil {
				return err
			}
			// "Module.group" or "group" for the current module
			if i := strings.LastIndex(s, "."); i >= 0 {
				theme.Vars = Ref{Module: s[:i], Rule: s[i+1:]}
			} else {
				theme.Vars = Ref{Rule: s}
			}
			return nil
		case "values":
			decl, err := decodeDeclaration(val)
			theme.Values = decl
			return err
		default:
			return errorAt(val, "unexpected theme key '%s'", key)
		}
	})
	if err == nil && len(theme.Vars.Rule) == 0 {
		err = errorAt(node, "theme does not reference vars")
	}
	return theme, err
}

func eachPair(node *yaml.Node, fn func(key string, val *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return errorAt(node, "expected an object")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func scalar(node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", errorAt(node, "expected a string")
	}
	return node.Value, nil
}

func errorAt(node *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", node.Line, fmt.Sprintf(format, args...))
}
