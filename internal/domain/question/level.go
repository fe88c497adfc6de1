package question

import "fmt"

// Level is the mastery of a question: 1 is least mastered, 4 most.
type Level int

const (
	MinLevel     Level = 1
	MaxLevel     Level = 4
	InitialLevel       = MinLevel
)

func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Promote moves one level up, saturating at MaxLevel.
func (l Level) Promote() Level {
	if l >= MaxLevel {
		return MaxLevel
	}
	return l + 1
}

// Demote moves one level down, saturating at MinLevel.
func (l Level) Demote() Level {
	if l <= MinLevel {
		return MinLevel
	}
	return l - 1
}

// After returns the level following a graded answer.
func (l Level) After(correct bool) Level {
	if correct {
		return l.Promote()
	}
	return l.Demote()
}

// ParseLevel converts a stored integer, rejecting anything out of bounds.
func ParseLevel(v int) (Level, error) {
	l := Level(v)
	if !l.Valid() {
		return 0, fmt.Errorf("level %d out of range [%d,%d]", v, MinLevel, MaxLevel)
	}
	return l, nil
}
