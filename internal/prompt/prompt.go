// Package prompt is the boundary between the game engines and whatever is
// driving them: the terminal UI, a test script, or the autopilot.
package prompt

import (
	"context"
	"fmt"
)

// Tone tells the presenter how to style a line.
type Tone int

const (
	ToneText Tone = iota
	ToneTitle
	ToneNarration
	ToneClass
	ToneDialogue
	ToneSuccess
	ToneDanger
	ToneInfo
	ToneReward
)

// Line is one block of output.
type Line struct {
	Tone Tone
	Text string
}

// Linef builds a line from a format string.
func Linef(tone Tone, format string, args ...any) Line {
	return Line{Tone: tone, Text: fmt.Sprintf(format, args...)}
}

// Prompter shows output and collects the player's decisions. Every method
// that waits for the player takes a context and returns its error when the
// context ends first.
type Prompter interface {
	// Say queues output. It never blocks.
	Say(lines ...Line)
	// Acknowledge waits for the player to continue.
	Acknowledge(ctx context.Context) error
	// Choose asks the player to pick one of options and returns its index.
	Choose(ctx context.Context, question string, options []string) (int, error)
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, question string, def bool) (bool, error)
}
