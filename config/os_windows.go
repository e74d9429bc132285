//go:build windows

package config

import (
	"os"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

// reservedNameChars cannot appear in report entry names.
const reservedNameChars = `<>":/\|?*;`

// EnableColorOutput reports whether stream is a console able to show colored
// log levels. VT100 processing is switched on for it, consoles before
// Windows 10 do not have it.
func EnableColorOutput(stream *os.File) bool {
	if windows.RtlGetVersion().MajorVersion < 10 {
		return false
	}
	fd := int(stream.Fd())
	if !term.IsTerminal(fd) {
		return false
	}

	const enableVirtualTerminalProcessing uint32 = 0x4

	var mode uint32
	h := windows.Handle(fd)
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	return windows.SetConsoleMode(h, mode|enableVirtualTerminalProcessing) == nil
}
