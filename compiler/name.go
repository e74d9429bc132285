package compiler

import (
	"math/big"
	"strings"

	"github.com/gosimple/slug"
	"github.com/zeebo/blake3"
)

const hashLen = 8

// namer produces content addressed identifiers. Names depend only on the
// hashed inputs so identical classes from different modules collapse.
type namer struct {
	prefix string
	debug  bool
}

// hash returns base36 digest of parts.
func hash(parts ...string) string {
	sum := blake3.Sum256([]byte(strings.Join(parts, "\x00")))
	s := new(big.Int).SetBytes(sum[:]).Text(36)
	if len(s) > hashLen {
		s = s[:hashLen]
	}
	return s
}

// class returns atomic class name.
func (n *namer) class(property string, values []string, pseudoElement, suffix, atRule string) string {
	name := n.prefix + hash("<>", property, strings.Join(values, ";"), pseudoElement, suffix, atRule)
	if n.debug {
		if s := slug.Make(property); len(s) > 0 {
			name = s + "-" + name
		}
	}
	return name
}

// ident returns identifier for a named definition (var group, theme,
// keyframes). Debug names keep readable entity name.
func (n *namer) ident(kind, key, content string) string {
	name := n.prefix + hash(kind, content)
	if n.debug {
		if s := slug.Make(key); len(s) > 0 {
			name = s + "-" + name
		}
	}
	return name
}
