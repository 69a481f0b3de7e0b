package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty is the optional effort classification of a task.
type Difficulty string

const (
	DifficultyLow    Difficulty = "LOW"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHigh   Difficulty = "HIGH"
)

// ParseDifficulty normalises and validates a difficulty string
// (case-insensitive). The empty string is not a valid difficulty; absence is
// modelled with a nil pointer on Task.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToUpper(strings.TrimSpace(s))) {
	case DifficultyLow:
		return DifficultyLow, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHigh:
		return DifficultyHigh, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q: %w", s, ErrInvalidInput)
	}
}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyLow, DifficultyMedium, DifficultyHigh:
		return true
	}
	return false
}

func (d Difficulty) String() string { return string(d) }

// Task is a to-do item scoped to the set of owner ids it lists. Callers only
// ever see tasks whose OwnerIDs contain their own id.
type Task struct {
	ID          string
	Name        string
	Description string
	Difficulty  *Difficulty
	Priority    int // 0..5
	Deadline    *time.Time
	Done        bool
	OwnerIDs    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OwnedBy reports whether ownerID appears in the task's owner list.
func (t Task) OwnedBy(ownerID string) bool {
	for _, id := range t.OwnerIDs {
		if id == ownerID {
			return true
		}
	}
	return false
}

// TaskDraft is the input for task creation.
type TaskDraft struct {
	Name        string
	Description string
	Difficulty  *Difficulty
	Priority    int
	Deadline    *time.Time
	Done        bool
}

// TaskPatch is a partial update. Nil fields mean "keep the existing value".
// Done is a plain bool and always overwrites, since false is a legitimate
// value with no natural absent sentinel.
type TaskPatch struct {
	Name        *string
	Description *string
	Difficulty  *Difficulty
	Priority    *int
	Deadline    *time.Time
	Done        bool
}
