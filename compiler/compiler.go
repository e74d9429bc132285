// Package compiler turns authored modules into atomic class entries and
// definitions and writes them to the manifest. A module is compiled
// completely in memory first, nothing is written when any of its rules
// fails.
package compiler

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"atomcss/config"
	"atomcss/manifest"
	"atomcss/priority"
	"atomcss/resolve"
	"atomcss/selector"
	"atomcss/shorthand"
	"atomcss/style"
	"atomcss/tables"
	"atomcss/validate"
)

// Compiler is safe for concurrent use as long as the store is, modules
// share nothing but the store.
type Compiler struct {
	cfg      *config.CompilerConfig
	t        *tables.Tables
	strategy shorthand.Strategy
	validate *validate.Validator
	prio     *priority.Assigner
	names    namer
	format   formatter
	store    manifest.Store
	log      *zap.Logger
}

type Option func(*Compiler)

// WithValuePrefixer replaces value vendor prefixer, nil disables value
// prefixing.
func WithValuePrefixer(fn ValuePrefixer) Option {
	return func(c *Compiler) {
		c.format.prefix = fn
	}
}

// New creates compiler writing to store.
func New(cfg *config.CompilerConfig, t *tables.Tables, store manifest.Store, log *zap.Logger, options ...Option) (*Compiler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	strategy, err := shorthand.New(&cfg.Shorthands, t)
	if err != nil {
		return nil, err
	}

	c := &Compiler{
		cfg:      cfg,
		t:        t,
		strategy: strategy,
		validate: validate.New(cfg, t, log),
		prio:     priority.New(t),
		names:    namer{prefix: cfg.ClassPrefix, debug: cfg.DebugClassNames},
		format: formatter{
			t:       t,
			pxToRem: cfg.PxToRem.Enable,
			rootPx:  cfg.PxToRem.RootPx,
		},
		store: store,
		log:   log.Named("compiler"),
	}
	if cfg.ValuePrefixing {
		c.format.prefix = TablePrefixer(t)
	}
	for _, o := range options {
		o(c)
	}
	return c, nil
}

// Unit is a compiled module.
type Unit struct {
	Module string
	Rules  []*manifest.Rule
	Defs   []*manifest.Def
}

// CompileModule compiles all rules and definitions of a module and commits
// them to the store as a single unit. Errors of all rules are reported
// together.
func (c *Compiler) CompileModule(m *style.Module) (*Unit, error) {
	if len(m.Name) == 0 {
		return nil, errors.New("module name is missing")
	}

	unit := &Unit{Module: m.Name}
	res := resolve.New(m.Rules, c.store, c.log)

	var errs error
	for i := range m.Rules {
		src := &m.Rules[i]
		rule, err := c.compileRule(res, src)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rule '%s': %w", src.Key(), err))
			continue
		}
		unit.Rules = append(unit.Rules, rule)
	}

	defs, err := c.compileDefs(m)
	errs = multierr.Append(errs, err)
	if errs != nil {
		return nil, fmt.Errorf("module '%s': %w", m.Name, errs)
	}
	unit.Defs = defs

	if err := c.store.Commit(unit.Rules, unit.Defs); err != nil {
		return nil, fmt.Errorf("module '%s': %w", m.Name, err)
	}
	c.log.Debug("Module compiled", zap.String("module", m.Name), zap.Int("rules", len(unit.Rules)), zap.Int("defs", len(unit.Defs)))
	return unit, nil
}

// CompileRule compiles single rule, local holds other rules of the same
// unit available for includes. Nothing is written to the store.
func (c *Compiler) CompileRule(src *style.RuleSource, local []style.RuleSource) (*manifest.Rule, error) {
	return c.compileRule(resolve.New(local, c.store, c.log), src)
}

func (c *Compiler) compileRule(res *resolve.Resolver, src *style.RuleSource) (*manifest.Rule, error) {
	decl, err := res.Resolve(src)
	if err != nil {
		return nil, err
	}
	classes, err := c.compileDeclaration(src.Key(), decl, "")
	if err != nil {
		return nil, err
	}
	c.log.Debug("Rule compiled", zap.String("rule", src.Key()), zap.Int("classes", len(classes)))
	return &manifest.Rule{
		Key:     src.Key(),
		Module:  src.Module,
		Name:    src.Name,
		Parts:   src.Parts,
		Classes: classes,
	}, nil
}

// compileDeclaration produces entries of a flat declaration. Properties
// under pseudo-element keys are scoped by it. When several authored
// properties produce the same key (shorthand followed by its longhand) the
// later one wins.
func (c *Compiler) compileDeclaration(rule string, decl style.Declaration, pseudoElement string) ([]style.AtomicClass, error) {
	var (
		out   []style.AtomicClass
		owner = make(map[string]int)
	)
	add := func(src int, entries []style.AtomicClass) {
		for _, e := range entries {
			key := e.Key()
			if o, ok := owner[key]; ok && o != src {
				out = slices.DeleteFunc(out, func(x style.AtomicClass) bool { return x.Key() == key })
			}
			owner[key] = src
			out = append(out, e)
		}
	}

	for i, prop := range decl {
		if style.IsPseudoElement(prop.Name) {
			if len(pseudoElement) > 0 {
				return nil, fmt.Errorf("'%s': pseudo-elements cannot be nested in '%s'", prop.Name, pseudoElement)
			}
			block, ok := prop.Value.(style.Block)
			if !ok {
				return nil, fmt.Errorf("'%s': pseudo-element requires a nested declaration", prop.Name)
			}
			c.validate.Condition(rule, prop.Name)
			entries, err := c.compileDeclaration(rule, style.Declaration(block), prop.Name)
			if err != nil {
				return nil, err
			}
			add(i, entries)
			continue
		}

		entries, err := c.compileProperty(rule, prop, pseudoElement)
		if err != nil {
			return nil, err
		}
		add(i, entries)
	}
	return out, nil
}

func (c *Compiler) compileProperty(rule string, prop style.Prop, pseudoElement string) ([]style.AtomicClass, error) {
	name := style.CSSProperty(prop.Name)
	if _, ok := prop.Value.(style.Block); ok {
		return nil, fmt.Errorf("'%s': nested declaration is allowed under pseudo-elements only", prop.Name)
	}
	if err := c.validate.Property(rule, name); err != nil {
		return nil, err
	}

	var (
		expanded []style.Prop
		err      error
	)
	if cond, ok := prop.Value.(style.Conditional); ok {
		expanded, err = c.strategy.ExpandConditions(prop.Name, name, cond)
	} else {
		expanded, err = c.strategy.ExpandDeclaration(name, prop.Value)
	}
	if err != nil {
		return nil, err
	}

	var out []style.AtomicClass
	for _, p := range expanded {
		for _, b := range resolve.Flatten(p.Value, "") {
			c.validate.Condition(rule, b.Condition)
			c.validate.Value(rule, p.Name, b.Value)
			e, err := c.entry(p.Name, b.Condition, b.Value, pseudoElement)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// entry builds a single atomic class of property under composed
// condition.
func (c *Compiler) entry(property, condition string, value style.Value, pseudoElement string) (style.AtomicClass, error) {
	pseudo, atRules := selector.Partition(condition)
	classes, elements := selector.Extract(pseudo)
	element := pseudoElement + elements
	suffix := selector.SortCombined(classes)
	atRule := strings.Join(atRules, "")

	e := style.AtomicClass{
		Property:       property,
		SelectorSuffix: suffix,
		PseudoElement:  element,
		AtRule:         atRule,
		Priority:       c.prio.Of(property, selector.SplitPseudos(suffix), element, atRules),
	}
	if style.IsNull(value) {
		e.Unset = true
		return e, nil
	}

	values, err := c.format.values(property, value)
	if err != nil {
		return style.AtomicClass{}, err
	}
	e.Value = values[0]
	if len(values) > 1 {
		e.FallbackValues = values[1:]
	}
	e.ClassName = c.names.class(property, values, element, suffix, atRule)
	return e, nil
}
