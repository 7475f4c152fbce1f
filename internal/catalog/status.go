package catalog

// Status is a timed combat effect. The set of statuses is closed: content
// naming any other status fails validation.
type Status string

const (
	StatusNone     Status = ""
	StatusShield   Status = "shield"
	StatusBlessing Status = "blessing"
	StatusWeakness Status = "weakness"
	StatusPoison   Status = "poison"
)

// DefaultDuration is used when content gives a status without a duration.
const DefaultDuration = 3

// Modifier is what a status does to the participant holding it.
type Modifier struct {
	Attack  int
	Defense int
	// Drain is life lost at the end of every round.
	Drain int
	// Hostile statuses are inflicted on the opponent when cast as a skill.
	Hostile bool
}

var statusRules = map[Status]Modifier{
	StatusShield:   {Defense: 3},
	StatusBlessing: {Attack: 2},
	StatusWeakness: {Attack: -2, Hostile: true},
	StatusPoison:   {Drain: 2, Hostile: true},
}

// Modifier returns the rules for s. ok is false for StatusNone and unknown
// statuses.
func (s Status) Modifier() (Modifier, bool) {
	m, ok := statusRules[s]
	return m, ok
}

// Valid reports whether s is empty or one of the known statuses.
func (s Status) Valid() bool {
	if s == StatusNone {
		return true
	}
	_, ok := statusRules[s]
	return ok
}
