package notify

import (
	"io"
	"os"
)

// TerminalBell is the haptic stand-in for terminals: it writes the BEL
// character, which most terminal emulators map to a system beep or a
// window flash.
type TerminalBell struct {
	w io.Writer
}

// NewTerminalBell creates a bell writing to stderr, which stays usable
// while the TUI owns stdout.
func NewTerminalBell() *TerminalBell {
	return &TerminalBell{w: os.Stderr}
}

// NewTerminalBellTo creates a bell writing to the given writer.
func NewTerminalBellTo(w io.Writer) *TerminalBell {
	return &TerminalBell{w: w}
}

// Pulse rings the bell once.
func (b *TerminalBell) Pulse() error {
	_, err := b.w.Write([]byte{'\a'})
	return err
}
