package policy

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects how a Store admits competing readers and writers.
type Mode int

const (
	// WriterPriority holds back new readers while any writer is waiting.
	// Writers cannot be starved by a stream of readers; readers can be
	// starved by a stream of writers.
	WriterPriority Mode = iota

	// StrictFair admits requests in arrival order. Consecutive readers
	// at the head of the line are admitted together.
	StrictFair
)

// ErrUnknownMode is returned when parsing an unrecognised mode name.
var ErrUnknownMode = errors.New("unknown fairness mode")

func (m Mode) String() string {
	switch m {
	case WriterPriority:
		return "writer-priority"
	case StrictFair:
		return "strict-fair"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name. It accepts the names produced by String
// and the short forms "writer" and "fair".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "writer-priority", "writer":
		return WriterPriority, nil
	case "strict-fair", "fair":
		return StrictFair, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if m != WriterPriority && m != StrictFair {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
