package compiler

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"

	"atomcss/manifest"
	"atomcss/resolve"
	"atomcss/selector"
	"atomcss/style"
)

// Definitions are rendered ahead of atomic classes, themes after vars they
// override.
const (
	varsPriority  = 0
	themePriority = 1
	otherPriority = 0
)

var viewTransitionParts = []string{"group", "image-pair", "old", "new"}

func (c *Compiler) compileDefs(m *style.Module) ([]*manifest.Def, error) {
	var (
		out  []*manifest.Def
		errs error
	)
	vars := make(map[string]*manifest.Def, len(m.Vars))

	collect := func(what, name string, d *manifest.Def, err error) {
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s '%s': %w", what, style.Key(m.Name, name), err))
			return
		}
		out = append(out, d)
	}

	for _, g := range m.Vars {
		d, err := c.compileVars(m.Name, &g)
		if err == nil {
			vars[d.Key] = d
		}
		collect("vars", g.Name, d, err)
	}
	for _, k := range m.Keyframes {
		d, err := c.compileKeyframes(m.Name, &k)
		collect("keyframes", k.Name, d, err)
	}
	for _, th := range m.Themes {
		d, err := c.compileTheme(m.Name, &th, vars)
		collect("theme", th.Name, d, err)
	}
	for _, p := range m.PositionTry {
		d, err := c.compilePositionTry(m.Name, &p)
		collect("position-try", p.Name, d, err)
	}
	for _, v := range m.ViewTransitions {
		d, err := c.compileViewTransition(m.Name, &v)
		collect("view transition", v.Name, d, err)
	}
	return out, errs
}

// body renders declaration as "prop:value;" list. Only scalar and fallback
// values are allowed.
func (c *Compiler) body(decl style.Declaration) (string, error) {
	var sb strings.Builder
	for _, p := range decl {
		if style.IsNull(p.Value) {
			continue
		}
		name := style.CSSProperty(p.Name)
		values, err := c.format.values(name, p.Value)
		if err != nil {
			return "", err
		}
		for _, v := range values {
			sb.WriteString(name)
			sb.WriteByte(':')
			sb.WriteString(v)
			sb.WriteByte(';')
		}
	}
	return sb.String(), nil
}

// customProperties renders var assignments, conditional values are grouped
// by at-rule and emitted after unconditional ones in order of appearance.
func (c *Compiler) customProperties(sel string, values style.Declaration, idents map[string]string) (string, error) {
	var (
		base    strings.Builder
		order   []string
		grouped = make(map[string]*strings.Builder)
	)
	for _, p := range values {
		ident, ok := idents[p.Name]
		if !ok {
			return "", fmt.Errorf("unknown var '%s'", p.Name)
		}
		for _, b := range resolve.Flatten(p.Value, "") {
			if style.IsNull(b.Value) {
				continue
			}
			pseudo, atRules := selector.Partition(b.Condition)
			if len(pseudo) > 0 {
				return "", fmt.Errorf("var '%s': only at-rule conditions are allowed, got '%s'", p.Name, b.Condition)
			}
			v, err := c.format.scalar(ident, b.Value)
			if err != nil {
				return "", fmt.Errorf("var '%s': %w", p.Name, err)
			}
			decl := ident + ":" + v + ";"
			if len(atRules) == 0 {
				base.WriteString(decl)
				continue
			}
			at := strings.Join(atRules, "")
			sb, ok := grouped[at]
			if !ok {
				sb = new(strings.Builder)
				grouped[at] = sb
				order = append(order, at)
			}
			sb.WriteString(decl)
		}
	}

	var out strings.Builder
	if base.Len() > 0 {
		out.WriteString(sel + "{" + base.String() + "}")
	}
	for _, at := range order {
		rule := sel + "{" + grouped[at].String() + "}"
		for _, r := range slices.Backward(selector.SplitAtRules(at)) {
			rule = r + "{" + rule + "}"
		}
		out.WriteString(rule)
	}
	return out.String(), nil
}

func (c *Compiler) compileVars(module string, g *style.VarGroup) (*manifest.Def, error) {
	key := style.Key(module, g.Name)
	idents := make(map[string]string, len(g.Values))
	for _, p := range g.Values {
		idents[p.Name] = "--" + c.names.prefix + hash(key, p.Name)
	}
	text, err := c.customProperties(":root", g.Values, idents)
	if err != nil {
		return nil, err
	}
	return &manifest.Def{
		Kind:     manifest.KindVars,
		Key:      key,
		Name:     c.names.ident("vars", key, key),
		Vars:     idents,
		CSS:      text,
		Priority: varsPriority,
	}, nil
}

// compileTheme overrides values of a var group with a class. Group is
// looked up in the module first, then in the store.
func (c *Compiler) compileTheme(module string, th *style.Theme, local map[string]*manifest.Def) (*manifest.Def, error) {
	key := style.Key(module, th.Name)
	varsKey := th.Vars.Key(module)

	group, ok := local[varsKey]
	if !ok && c.store != nil {
		var err error
		if group, ok, err = c.store.Def(manifest.KindVars, varsKey); err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("vars '%s' are not found", varsKey)
	}

	name := c.names.ident("theme", key, key)
	sel := "." + name + ", ." + name + ":root"
	text, err := c.customProperties(sel, th.Values, group.Vars)
	if err != nil {
		return nil, err
	}
	return &manifest.Def{
		Kind:     manifest.KindTheme,
		Key:      key,
		Name:     name,
		Vars:     group.Vars,
		CSS:      text,
		Priority: themePriority,
	}, nil
}

func (c *Compiler) frames(frames []style.Frame) (string, error) {
	var sb strings.Builder
	for _, f := range frames {
		body, err := c.body(f.Decl)
		if err != nil {
			return "", fmt.Errorf("'%s': %w", f.Selector, err)
		}
		sb.WriteString(f.Selector + "{" + body + "}")
	}
	return sb.String(), nil
}

// compileKeyframes names animation after its content so identical
// keyframes declared in different modules share one name.
func (c *Compiler) compileKeyframes(module string, k *style.Keyframes) (*manifest.Def, error) {
	key := style.Key(module, k.Name)
	body, err := c.frames(k.Frames)
	if err != nil {
		return nil, err
	}
	name := c.names.ident("keyframes", k.Name, body) + "-B"
	return &manifest.Def{
		Kind:     manifest.KindKeyframes,
		Key:      key,
		Name:     name,
		CSS:      "@keyframes " + name + "{" + body + "}",
		Priority: otherPriority,
	}, nil
}

func (c *Compiler) compilePositionTry(module string, p *style.PositionTry) (*manifest.Def, error) {
	key := style.Key(module, p.Name)
	body, err := c.body(p.Decl)
	if err != nil {
		return nil, err
	}
	name := "--" + c.names.prefix + hash("position-try", body)
	return &manifest.Def{
		Kind:     manifest.KindPositionTry,
		Key:      key,
		Name:     name,
		CSS:      "@position-try " + name + "{" + body + "}",
		Priority: otherPriority,
	}, nil
}

// compileViewTransition produces a class to be set as view-transition-class
// and rules for its transition pseudo-elements.
func (c *Compiler) compileViewTransition(module string, v *style.ViewTransition) (*manifest.Def, error) {
	key := style.Key(module, v.Name)
	var bodies []string
	for _, f := range v.Frames {
		if !slices.Contains(viewTransitionParts, f.Selector) {
			return nil, fmt.Errorf("unknown view transition part '%s', expected one of %s", f.Selector, strings.Join(viewTransitionParts, ", "))
		}
		body, err := c.body(f.Decl)
		if err != nil {
			return nil, fmt.Errorf("'%s': %w", f.Selector, err)
		}
		bodies = append(bodies, f.Selector+"\x00"+body)
	}

	name := c.names.ident("view-transition", v.Name, strings.Join(bodies, "\x00"))
	var sb strings.Builder
	for _, b := range bodies {
		part, body, _ := strings.Cut(b, "\x00")
		sb.WriteString("::view-transition-" + part + "(*." + name + "){" + body + "}")
	}
	return &manifest.Def{
		Kind:     manifest.KindViewTransition,
		Key:      key,
		Name:     name,
		CSS:      sb.String(),
		Priority: otherPriority,
	}, nil
}
