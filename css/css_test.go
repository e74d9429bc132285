package css_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"atomcss/css"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"10px 20px", []string{"10px", "20px"}},
		{"  1px\tsolid   red ", []string{"1px", "solid", "red"}},
		{"calc(100% - 10px) 5px", []string{"calc(100% - 10px)", "5px"}},
		{`"a b" url("x y.png")`, []string{`"a b"`, `url("x y.png")`}},
		{"10px / 20px", []string{"10px", "/", "20px"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := css.Split(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := css.SplitList("1px 1px red, inset 0 0 rgba(0, 0, 0, 0.5)")
	want := []string{"1px 1px red", "inset 0 0 rgba(0, 0, 0, 0.5)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList() = %q, want %q", got, want)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  red  ", "red"},
		{"1px   solid\n red", "1px solid red"},
		{"rgb( 0 ,  0, 0 )", "rgb(0, 0, 0)"},
		{"calc( 100%  -  10px )", "calc(100% - 10px)"},
		{"a /* note */ b", "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := css.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    float64
		unit string
		want string
	}{
		{10, "px", "10px"},
		{0, "px", "0"},
		{0.5, "", "0.5"},
		{300, "ms", "300ms"},
		{1.0 / 3.0, "rem", "0.3333rem"},
	}
	for _, tt := range tests {
		if got := css.FormatNumber(tt.n, tt.unit); got != tt.want {
			t.Errorf("FormatNumber(%v, %q) = %q, want %q", tt.n, tt.unit, got, tt.want)
		}
	}
}

func TestPxToRem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"16px", "1rem"},
		{"24px", "1.5rem"},
		{"calc(100% - 8px)", "calc(100% - 0.5rem)"},
		{"1.2em", "1.2em"},
		{"0px", "0"},
	}
	for _, tt := range tests {
		if got := css.PxToRem(tt.in, 16); got != tt.want {
			t.Errorf("PxToRem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlipShadow(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		changed bool
	}{
		{"1px 2px 3px red", "-1px 2px 3px red", true},
		{"inset -4px 0 red", "inset 4px 0 red", true},
		{"1px 1px red, -2px 0 blue", "-1px 1px red, 2px 0 blue", true},
		{"0 2px red", "0 2px red", false},
		{"none", "none", false},
	}
	for _, tt := range tests {
		got, changed := css.FlipShadow(tt.in)
		if got != tt.want || changed != tt.changed {
			t.Errorf("FlipShadow(%q) = %q, %v; want %q, %v", tt.in, got, changed, tt.want, tt.changed)
		}
	}
}

func TestRuleString(t *testing.T) {
	r := css.Rule{
		Selector: ".x1:where(:hover)",
		AtRules:  []string{"@supports (display: grid)", "@media (min-width: 800px)"},
		Decls:    []css.Decl{{Property: "position", Value: "-webkit-sticky"}, {Property: "position", Value: "sticky"}},
	}
	want := "@supports (display: grid){@media (min-width: 800px){.x1:where(:hover){position:-webkit-sticky;position:sticky}}}"
	if got := r.String(); got != want {
		t.Errorf("String() = %q\nwant %q", got, want)
	}
}

func TestStylesheet_WriteTo(t *testing.T) {
	var s css.Stylesheet
	s.AddLayerOrder([]string{"priority1", "priority2"})
	s.AddLayer("priority1", []string{".a{color:red}"})
	s.AddLayer("empty", nil)
	s.AddComment("/* rtl */")
	s.AddRule(&css.Rule{Selector: ".b", Decls: []css.Decl{{Property: "margin-left", Value: "0"}}})

	want := strings.Join([]string{
		"@layer priority1, priority2;",
		"@layer priority1{",
		".a{color:red}",
		"}",
		"/* rtl */",
		".b{margin-left:0}",
		"",
	}, "\n")

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if int(n) != buf.Len() {
		t.Errorf("WriteTo() reported %d bytes, wrote %d", n, buf.Len())
	}
	if buf.String() != want {
		t.Errorf("WriteTo() = %q\nwant %q", buf.String(), want)
	}
	if s.String() != want {
		t.Errorf("String() differs from WriteTo()")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("boom") }

func TestStylesheet_WriteToError(t *testing.T) {
	var s css.Stylesheet
	s.AddText(".a{color:red}")
	if _, err := s.WriteTo(failingWriter{}); err == nil {
		t.Error("expected write error")
	}
}

func TestInspect(t *testing.T) {
	p := css.NewInspector(zaptest.NewLogger(t))

	stats, err := p.Inspect([]byte("@layer a, b;\n@layer a{\n.x{color:red;margin:0}\n}\n@media (min-width: 1px){.y:where(:hover){--v:1}}\n"))
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	want := css.Stats{Rulesets: 2, Declarations: 3, AtRules: 2, Layers: 1}
	if stats != want {
		t.Errorf("Inspect() = %+v, want %+v", stats, want)
	}
}
