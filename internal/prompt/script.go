package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrScriptExhausted is returned when a Script runs out of answers.
var ErrScriptExhausted = errors.New("prompt script exhausted")

// Script replays canned answers in order. Choices and Confirms are separate
// queues. Everything said and asked is recorded.
type Script struct {
	Choices  []int
	Confirms []bool

	Lines     []Line
	Questions []string
	Options   [][]string
	Acks      int
}

// Say records the lines.
func (s *Script) Say(lines ...Line) {
	s.Lines = append(s.Lines, lines...)
}

// Acknowledge counts the acknowledgement.
func (s *Script) Acknowledge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Acks++
	return nil
}

// Choose pops the next choice.
func (s *Script) Choose(ctx context.Context, question string, options []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.Questions = append(s.Questions, question)
	s.Options = append(s.Options, append([]string{}, options...))
	if len(s.Choices) == 0 {
		return 0, fmt.Errorf("%w: choose %q", ErrScriptExhausted, question)
	}
	pick := s.Choices[0]
	s.Choices = s.Choices[1:]
	if pick < 0 || pick >= len(options) {
		return 0, fmt.Errorf("scripted choice %d out of range for %q (%d options)", pick, question, len(options))
	}
	return pick, nil
}

// Confirm pops the next confirmation.
func (s *Script) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.Questions = append(s.Questions, question)
	if len(s.Confirms) == 0 {
		return false, fmt.Errorf("%w: confirm %q", ErrScriptExhausted, question)
	}
	v := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return v, nil
}

// Said reports whether any recorded line contains text.
func (s *Script) Said(text string) bool {
	for _, l := range s.Lines {
		if strings.Contains(l.Text, text) {
			return true
		}
	}
	return false
}
