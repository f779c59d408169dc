package repair

import "fmt"

// Mode selects the direction of a repair.
type Mode int

const (
	// Apply fixes the attribute.
	Apply Mode = iota
	// Revert restores the previous behaviour.
	Revert
)

// UndoValue is the attribute value that selects Revert for attributes that
// honour it.
const UndoValue = "undo"

// String returns "do" or "undo".
func (m Mode) String() string {
	switch m {
	case Apply:
		return "do"
	case Revert:
		return "undo"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "do" or "undo".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "do":
		return Apply, nil
	case "undo":
		return Revert, nil
	default:
		return Apply, fmt.Errorf("invalid repair mode %q: must be do or undo", s)
	}
}
