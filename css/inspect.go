package css

import (
	"bytes"
	"fmt"
	"io"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Stats summarizes generated stylesheet.
type Stats struct {
	Rulesets     int
	Declarations int
	AtRules      int
	Layers       int
}

// Inspector re-reads generated CSS with a real CSS grammar parser to make
// sure output is well formed.
type Inspector struct {
	log *zap.Logger
}

// NewInspector creates a new CSS inspector.
func NewInspector(log *zap.Logger) *Inspector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inspector{log: log.Named("css-inspector")}
}

// Inspect parses CSS text and returns its statistics or the first grammar
// error.
func (p *Inspector) Inspect(data []byte) (Stats, error) {
	var stats Stats

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	depth := 0
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err != io.EOF {
				return stats, fmt.Errorf("malformed css at offset %d: %w", parser.Offset(), err)
			}
			if depth != 0 {
				return stats, fmt.Errorf("malformed css: %d unclosed blocks", depth)
			}
			p.log.Debug("Inspected CSS",
				zap.Int("rulesets", stats.Rulesets),
				zap.Int("declarations", stats.Declarations),
				zap.Int("at-rules", stats.AtRules),
				zap.Int("layers", stats.Layers))
			return stats, nil

		case css.BeginAtRuleGrammar:
			depth++
			stats.AtRules++
			if string(data) == "@layer" {
				stats.Layers++
			}
		case css.EndAtRuleGrammar:
			depth--
		case css.AtRuleGrammar:
			p.log.Debug("At-rule statement", zap.ByteString("rule", data))
		case css.BeginRulesetGrammar:
			depth++
			stats.Rulesets++
		case css.EndRulesetGrammar:
			depth--
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			stats.Declarations++
		case css.QualifiedRuleGrammar:
			// part of a selector list, counted with its ruleset
		}
	}
}
