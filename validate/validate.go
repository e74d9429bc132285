// Package validate checks authored property names against knowledge
// tables. Problems are reported as warnings unless configuration escalates
// unknown properties to errors.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xrash/smetrics"
	"go.uber.org/zap"

	"atomcss/config"
	"atomcss/selector"
	"atomcss/style"
	"atomcss/tables"
)

// Jaro-Winkler parameters: common prefix boost applies above threshold for
// up to prefixSize characters. Candidates below minScore are not offered.
const (
	boostThreshold = 0.7
	prefixSize     = 4
	minScore       = 0.8
)

// UnknownPropertyError is returned for unknown property when validation
// level is error.
type UnknownPropertyError struct {
	Property    string
	Suggestions []string
}

func (e *UnknownPropertyError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown property '%s'", e.Property)
	}
	return fmt.Sprintf("unknown property '%s', did you mean %s?", e.Property, quoteList(e.Suggestions))
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}

// Validator checks canonical (kebab-case) property names, values and
// conditions.
type Validator struct {
	t              *tables.Tables
	prefixer       *selector.Prefixer
	level          config.ValidationLevel
	suggestions    int
	valuePrefixing bool
	log            *zap.Logger
}

func New(cfg *config.CompilerConfig, t *tables.Tables, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{
		t:              t,
		prefixer:       selector.NewPrefixer(t),
		level:          cfg.Validation.Level,
		suggestions:    cfg.Validation.Suggestions,
		valuePrefixing: cfg.ValuePrefixing,
		log:            log.Named("validate"),
	}
}

// Property validates property used in rule. Only unknown property with
// validation level error results in error. Vendor prefixed properties are
// accepted as is, nothing generates them.
func (v *Validator) Property(rule, property string) error {
	if strings.HasPrefix(property, "--") || v.level == config.ValidationLevelIgnore {
		return nil
	}
	if vendorPrefixed(property) {
		return nil
	}
	if v.t.IsKnownProperty(property) {
		return nil
	}

	suggestions := Suggest(v.t, property, v.suggestions)
	if v.level.IsFatal() {
		return &UnknownPropertyError{Property: property, Suggestions: suggestions}
	}
	v.log.Warn("Unknown property", zap.String("rule", rule), zap.String("property", property), zap.Strings("suggestions", suggestions))
	return nil
}

// Value warns about vendor variants of a value the value prefixer
// produces by itself.
func (v *Validator) Value(rule, property string, value style.Value) {
	if !v.valuePrefixing || v.level == config.ValidationLevelIgnore {
		return
	}
	items := []style.Value{value}
	if fb, ok := value.(style.Fallbacks); ok {
		items = fb
	}
	for _, item := range items {
		s, ok := item.(style.String)
		if !ok {
			continue
		}
		if std, ok := v.t.StandardValue(property, strings.TrimSpace(string(s))); ok {
			v.log.Warn("Unnecessary vendor prefix, prefixes are added automatically",
				zap.String("rule", rule), zap.String("property", property), zap.String("value", string(s)), zap.String("use", std))
		}
	}
}

// Condition warns about vendor specific pseudo tokens the selector
// prefixer generates from the standard ones.
func (v *Validator) Condition(rule, condition string) {
	if v.level == config.ValidationLevelIgnore || len(condition) == 0 {
		return
	}
	pseudo, _ := selector.Partition(condition)
	for _, token := range selector.SplitPseudos(pseudo) {
		if std, ok := v.prefixer.Standard(token); ok {
			v.log.Warn("Unnecessary vendor prefix, prefixes are added automatically",
				zap.String("rule", rule), zap.String("selector", token), zap.String("use", std))
		}
	}
}

// vendorPrefixed reports -webkit-, -moz-, -ms-, -o- and alike names.
func vendorPrefixed(property string) bool {
	if !strings.HasPrefix(property, "-") {
		return false
	}
	i := strings.IndexByte(property[1:], '-')
	return i > 0 && i+2 < len(property)
}

// Suggest returns up to n known properties most similar to name, best
// first.
func Suggest(t *tables.Tables, name string, n int) []string {
	if n <= 0 {
		return nil
	}

	type candidate struct {
		name  string
		score float64
	}
	var candidates []candidate
	for _, known := range t.KnownProperties {
		score := smetrics.JaroWinkler(name, known, boostThreshold, prefixSize)
		if score >= minScore {
			candidates = append(candidates, candidate{known, score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].name < candidates[j].name
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.name)
	}
	return out
}
