package validate

import (
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"atomcss/config"
	"atomcss/style"
	"atomcss/tables"
)

func newValidator(level config.ValidationLevel, prefixing bool) (*Validator, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := &config.CompilerConfig{
		Validation:     config.ValidationConfig{Level: level, Suggestions: 3},
		ValuePrefixing: prefixing,
	}
	return New(cfg, tables.MustDefault(), zap.New(core)), logs
}

func TestSuggest(t *testing.T) {
	tbl := tables.MustDefault()

	got := Suggest(tbl, "colr", 3)
	if len(got) == 0 || got[0] != "color" {
		t.Errorf("Suggest(colr) = %v, want color first", got)
	}
	if len(Suggest(tbl, "backgrund-color", 3)) > 3 {
		t.Error("no more than three suggestions")
	}
	if !slices.Contains(Suggest(tbl, "backgrund-color", 3), "background-color") {
		t.Errorf("Suggest(backgrund-color) = %v", Suggest(tbl, "backgrund-color", 3))
	}
	if got := Suggest(tbl, "zzzzzzzz", 3); len(got) != 0 {
		t.Errorf("Suggest(nonsense) = %v, want none", got)
	}
	if got := Suggest(tbl, "colr", 0); got != nil {
		t.Errorf("Suggest(n=0) = %v", got)
	}
}

func TestProperty(t *testing.T) {
	tests := []struct {
		name      string
		level     config.ValidationLevel
		prefixing bool
		property  string
		wantErr   bool
		wantWarns int
	}{
		{"known", config.ValidationLevelWarn, true, "color", false, 0},
		{"custom property", config.ValidationLevelError, true, "--brand", false, 0},
		{"unknown warn", config.ValidationLevelWarn, true, "colr", false, 1},
		{"unknown error", config.ValidationLevelError, true, "colr", true, 0},
		{"unknown ignore", config.ValidationLevelIgnore, true, "colr", false, 0},
		{"prefixed property", config.ValidationLevelError, true, "-webkit-appearance", false, 0},
		{"prefixed property without prefixing", config.ValidationLevelWarn, false, "-webkit-appearance", false, 0},
		{"prefixed unknown property", config.ValidationLevelError, true, "-webkit-box-reflect", false, 0},
		{"dash only", config.ValidationLevelError, true, "-x-", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, logs := newValidator(tt.level, tt.prefixing)
			err := v.Property("app.rule", tt.property)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Property() error = %v, wantErr %v", err, tt.wantErr)
			}
			if logs.Len() != tt.wantWarns {
				t.Errorf("warnings = %d, want %d", logs.Len(), tt.wantWarns)
			}
		})
	}
}

func TestUnknownPropertyError(t *testing.T) {
	v, _ := newValidator(config.ValidationLevelError, false)
	err := v.Property("app.rule", "colr")
	var ue *UnknownPropertyError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want UnknownPropertyError", err)
	}
	if ue.Property != "colr" || len(ue.Suggestions) == 0 || len(ue.Suggestions) > 3 {
		t.Errorf("UnknownPropertyError = %+v", ue)
	}
	if err.Error() == "" {
		t.Error("empty message")
	}
}

func TestValue(t *testing.T) {
	tests := []struct {
		name      string
		level     config.ValidationLevel
		prefixing bool
		property  string
		value     style.Value
		wantWarns int
	}{
		{"generated variant", config.ValidationLevelWarn, true, "position", style.String("-webkit-sticky"), 1},
		{"standard value", config.ValidationLevelWarn, true, "position", style.String("sticky"), 0},
		{"variant in fallbacks", config.ValidationLevelWarn, true, "display", style.Fallbacks{style.String("grid"), style.String("-webkit-box")}, 1},
		{"variant of other property", config.ValidationLevelWarn, true, "display", style.String("-webkit-sticky"), 0},
		{"not covered by tables", config.ValidationLevelWarn, true, "background-clip", style.String("-webkit-text"), 0},
		{"prefixing disabled", config.ValidationLevelWarn, false, "position", style.String("-webkit-sticky"), 0},
		{"ignored", config.ValidationLevelIgnore, true, "position", style.String("-webkit-sticky"), 0},
		{"number", config.ValidationLevelWarn, true, "width", style.Number(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, logs := newValidator(tt.level, tt.prefixing)
			v.Value("app.rule", tt.property, tt.value)
			if logs.Len() != tt.wantWarns {
				t.Errorf("warnings = %d, want %d", logs.Len(), tt.wantWarns)
			}
		})
	}
}

func TestCondition(t *testing.T) {
	tests := []struct {
		name      string
		level     config.ValidationLevel
		condition string
		wantWarns int
		wantUse   string
	}{
		{"generated pseudo-element", config.ValidationLevelWarn, "::-webkit-input-placeholder", 1, "::placeholder"},
		{"generated pseudo-class", config.ValidationLevelWarn, ":hover:-webkit-autofill", 1, ":autofill"},
		{"with at-rule", config.ValidationLevelWarn, "@media (hover: hover):-moz-full-screen", 1, ":fullscreen"},
		{"standard form", config.ValidationLevelWarn, "::placeholder", 0, ""},
		{"not in tables", config.ValidationLevelWarn, "::-webkit-scrollbar", 0, ""},
		{"plain", config.ValidationLevelWarn, ":hover", 0, ""},
		{"empty", config.ValidationLevelWarn, "", 0, ""},
		{"ignored", config.ValidationLevelIgnore, "::-webkit-input-placeholder", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, logs := newValidator(tt.level, false)
			v.Condition("app.rule", tt.condition)
			if logs.Len() != tt.wantWarns {
				t.Fatalf("warnings = %d, want %d", logs.Len(), tt.wantWarns)
			}
			if tt.wantWarns > 0 {
				if use := logs.All()[0].ContextMap()["use"]; use != tt.wantUse {
					t.Errorf("use = %v, want %q", use, tt.wantUse)
				}
			}
		})
	}
}
