//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

// reservedNameChars cannot appear in report entry names.
const reservedNameChars = "/:"

// EnableColorOutput reports whether stream is a terminal able to show
// colored log levels.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
