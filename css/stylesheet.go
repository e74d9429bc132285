package css

import (
	"fmt"
	"io"
	"strings"
)

// Decl is a single property declaration.
type Decl struct {
	Property string
	Value    string
}

// Rule is a style rule wrapped into zero or more at-rules, outermost first.
type Rule struct {
	Selector string
	AtRules  []string
	Decls    []Decl
}

// String returns compact text of the rule: `@media (...){.x{color:red}}`.
func (r *Rule) String() string {
	var sb strings.Builder
	for _, at := range r.AtRules {
		sb.WriteString(at)
		sb.WriteByte('{')
	}
	sb.WriteString(r.Selector)
	sb.WriteByte('{')
	for i, d := range r.Decls {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(d.Property)
		sb.WriteByte(':')
		sb.WriteString(d.Value)
	}
	sb.WriteByte('}')
	for range r.AtRules {
		sb.WriteByte('}')
	}
	return sb.String()
}

// Layer is a named cascade layer block.
type Layer struct {
	Name  string
	Rules []string
}

// StylesheetItem is a single top-level item in a stylesheet.
// Exactly one of the fields is set.
type StylesheetItem struct {
	Text       *string  // preformatted rule text
	Comment    *string  // a marker comment, written verbatim
	Layer      *Layer   // @layer block
	LayerOrder []string // @layer statement declaring order
}

// Stylesheet is generated CSS in output order.
type Stylesheet struct {
	Items []StylesheetItem
}

// AddText appends preformatted rule text.
func (s *Stylesheet) AddText(text string) {
	if len(text) == 0 {
		return
	}
	s.Items = append(s.Items, StylesheetItem{Text: &text})
}

// AddRule appends a rule.
func (s *Stylesheet) AddRule(r *Rule) {
	s.AddText(r.String())
}

// AddComment appends a marker line.
func (s *Stylesheet) AddComment(text string) {
	s.Items = append(s.Items, StylesheetItem{Comment: &text})
}

// AddLayer appends a layer block, empty layers are skipped.
func (s *Stylesheet) AddLayer(name string, rules []string) {
	if len(rules) == 0 {
		return
	}
	s.Items = append(s.Items, StylesheetItem{Layer: &Layer{Name: name, Rules: rules}})
}

// AddLayerOrder appends `@layer a, b;` statement.
func (s *Stylesheet) AddLayerOrder(names []string) {
	if len(names) == 0 {
		return
	}
	s.Items = append(s.Items, StylesheetItem{LayerOrder: names})
}

// WriteTo writes the stylesheet to w, one item per line, implementing
// io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, item := range s.Items {
		var n int
		var err error

		switch {
		case item.Text != nil:
			n, err = fmt.Fprintf(w, "%s\n", *item.Text)
		case item.Comment != nil:
			n, err = fmt.Fprintf(w, "%s\n", *item.Comment)
		case item.Layer != nil:
			n, err = writeLayer(w, item.Layer)
		case len(item.LayerOrder) > 0:
			n, err = fmt.Fprintf(w, "@layer %s;\n", strings.Join(item.LayerOrder, ", "))
		}

		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeLayer(w io.Writer, l *Layer) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "@layer %s{\n", l.Name)
	total += n
	if err != nil {
		return total, err
	}
	for _, r := range l.Rules {
		n, err = fmt.Fprintf(w, "%s\n", r)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}
