package main

import (
	"io"
	"os"

	"golang.org/x/term"
)

// glyphs renders status marks, degrading to ASCII when stdout is not a
// terminal (CI logs, redirected output).
type glyphs struct {
	ok   string
	bad  string
	warn string
}

func glyphsFor(writer io.Writer) glyphs {
	if supportsUnicode(writer) {
		return glyphs{ok: "✓", bad: "✗", warn: "⚠"}
	}
	return glyphs{ok: "[ok]", bad: "[x]", warn: "[!]"}
}

func supportsUnicode(writer any) bool {
	if file, ok := writer.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}
