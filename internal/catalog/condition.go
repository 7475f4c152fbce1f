package catalog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConditionKind selects how a Condition is evaluated.
type ConditionKind string

const (
	CondHasItem  ConditionKind = "has_item"
	CondHasTrait ConditionKind = "has_trait"
	CondClass    ConditionKind = "class"
)

// Condition is a quest predicate written "<kind>:<arg>" in content, for
// example "has_item:light_crystal".
type Condition struct {
	Kind ConditionKind
	Arg  string
}

// Subject is the part of the session a condition can inspect.
type Subject interface {
	HasItem(id string) bool
	HasTrait(trait string) bool
	ClassID() string
}

var conditionChecks = map[ConditionKind]func(Subject, string) bool{
	CondHasItem:  func(s Subject, arg string) bool { return s.HasItem(arg) },
	CondHasTrait: func(s Subject, arg string) bool { return s.HasTrait(arg) },
	CondClass:    func(s Subject, arg string) bool { return s.ClassID() == arg },
}

// ParseCondition parses the "<kind>:<arg>" form.
func ParseCondition(raw string) (Condition, error) {
	kind, arg, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || arg == "" {
		return Condition{}, fmt.Errorf("condition %q: want <kind>:<arg>", raw)
	}
	c := Condition{Kind: ConditionKind(kind), Arg: arg}
	if _, known := conditionChecks[c.Kind]; !known {
		return Condition{}, fmt.Errorf("condition %q: unknown kind %q", raw, kind)
	}
	return c, nil
}

// Holds evaluates the condition against s.
func (c Condition) Holds(s Subject) bool {
	check, ok := conditionChecks[c.Kind]
	if !ok {
		return false
	}
	return check(s, c.Arg)
}

func (c Condition) String() string {
	return string(c.Kind) + ":" + c.Arg
}

// UnmarshalYAML decodes the scalar form.
func (c *Condition) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseCondition(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML encodes the scalar form.
func (c Condition) MarshalYAML() (any, error) {
	return c.String(), nil
}
