package prompt

import (
	"context"
	"slices"
)

// Intn is the random source used by Auto.
type Intn interface {
	Intn(n int) int
}

// Auto plays by itself: it picks uniformly among the options it is not told
// to skip and accepts every yes/no question. Output goes to Log when set.
type Auto struct {
	Rand Intn
	Skip []string
	Log  func(Line)
}

// Say forwards to Log.
func (a *Auto) Say(lines ...Line) {
	if a.Log == nil {
		return
	}
	for _, l := range lines {
		a.Log(l)
	}
}

// Acknowledge returns immediately.
func (a *Auto) Acknowledge(ctx context.Context) error {
	return ctx.Err()
}

// Choose picks a random allowed option, falling back to the first option
// when every one is skipped.
func (a *Auto) Choose(ctx context.Context, question string, options []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var allowed []int
	for i, o := range options {
		if !slices.Contains(a.Skip, o) {
			allowed = append(allowed, i)
		}
	}
	if len(allowed) == 0 {
		return 0, nil
	}
	pick := allowed[a.Rand.Intn(len(allowed))]
	a.Say(Linef(ToneInfo, "> %s", options[pick]))
	return pick, nil
}

// Confirm always answers yes.
func (a *Auto) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}
