package editor

import "fmt"

// Mode selects which representation of the flowchart is authoritative.
type Mode int

const (
	// ModeDiagram makes the graph authoritative.
	ModeDiagram Mode = iota
	// ModeText makes the text authoritative.
	ModeText
)

func (m Mode) String() string {
	switch m {
	case ModeDiagram:
		return "diagram"
	case ModeText:
		return "text"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts "text" or "diagram" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "diagram":
		return ModeDiagram, nil
	case "text":
		return ModeText, nil
	}
	return 0, fmt.Errorf("unknown mode %q (must be text or diagram)", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
