// Package resolve turns authored rule sources into flat declarations:
// includes are fetched (local unit first, then manifest) and merged in
// order, conditional values are flattened into (condition, value) branches.
package resolve

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"atomcss/manifest"
	"atomcss/style"
)

// MissingIncludeError is returned when include target cannot be found.
type MissingIncludeError struct {
	// Rule is the missing rule name.
	Rule string
	// Owner is the module expected to declare it.
	Owner string
	// From is the fully-qualified name of the including rule.
	From string
}

func (e *MissingIncludeError) Error() string {
	return fmt.Sprintf("rule '%s' included from '%s' is not found in module '%s'", e.Rule, e.From, e.Owner)
}

// CycleError is returned when includes form a cycle. Path starts and ends
// with the same rule.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "include cycle: " + strings.Join(e.Path, " -> ")
}

// Resolver resolves rules of one compilation unit. It is not safe for
// concurrent use, units are resolved sequentially.
type Resolver struct {
	local map[string]*style.RuleSource
	store manifest.Store
	log   *zap.Logger

	resolved map[string]style.Declaration
	stack    []string
}

// New returns resolver for a unit. Store may be nil when unit does not
// reference other modules.
func New(local []style.RuleSource, store manifest.Store, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resolver{
		local:    make(map[string]*style.RuleSource, len(local)),
		store:    store,
		log:      log.Named("resolve"),
		resolved: make(map[string]style.Declaration),
	}
	for i := range local {
		r.local[local[i].Key()] = &local[i]
	}
	return r
}

// Resolve returns flat declaration of a rule. Included rules are resolved
// recursively and merged in order with whole-value replacement per
// property.
func (r *Resolver) Resolve(src *style.RuleSource) (style.Declaration, error) {
	decl, err := r.resolve(src)
	if err != nil {
		return nil, err
	}
	return decl.Clone(), nil
}

func (r *Resolver) resolve(src *style.RuleSource) (style.Declaration, error) {
	key := src.Key()
	if i := slices.Index(r.stack, key); i >= 0 {
		path := append(slices.Clone(r.stack[i:]), key)
		return nil, &CycleError{Path: path}
	}
	if decl, ok := r.resolved[key]; ok {
		return decl, nil
	}

	r.stack = append(r.stack, key)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	out := style.Declaration{}
	for _, part := range src.Parts {
		if part.Include == nil {
			out = out.Merge(part.Decl)
			continue
		}
		target, err := r.lookup(src, part.Include)
		if err != nil {
			return nil, err
		}
		decl, err := r.resolve(target)
		if err != nil {
			return nil, err
		}
		out = out.Merge(decl)
	}
	r.resolved[key] = out
	return out, nil
}

func (r *Resolver) lookup(from *style.RuleSource, ref *style.Ref) (*style.RuleSource, error) {
	key := ref.Key(from.Module)
	if src, ok := r.local[key]; ok {
		return src, nil
	}

	owner := ref.Module
	if len(owner) == 0 {
		owner = from.Module
	}
	missing := &MissingIncludeError{Rule: ref.Rule, Owner: owner, From: from.Key()}
	if r.store == nil {
		return nil, missing
	}
	rule, ok, err := r.store.Rule(key)
	if err != nil {
		return nil, fmt.Errorf("looking up '%s': %w", key, err)
	}
	if !ok {
		return nil, missing
	}
	r.log.Debug("Include resolved from manifest", zap.String("rule", from.Key()), zap.String("include", key))
	return rule.Source(), nil
}

// Flatten returns ordered (condition, value) pairs of a value. Nested
// conditionals compose by concatenation, default contributes nothing.
// Non-conditional value yields a single pair with outer condition.
func Flatten(v style.Value, outer string) []style.Branch {
	c, ok := v.(style.Conditional)
	if !ok {
		return []style.Branch{{Condition: outer, Value: v}}
	}
	var out []style.Branch
	for _, b := range c {
		cond := outer
		if b.Condition != style.DefaultCondition {
			cond += b.Condition
		}
		out = append(out, Flatten(b.Value, cond)...)
	}
	return out
}
