package fault

import (
	"fmt"
	"strings"
)

// Type is the fault topology.
type Type int

const (
	LG  Type = iota // single line to ground
	LL              // line to line
	LLG             // double line to ground
	LLL             // three phase bolted
)

// Types lists every fault topology in declaration order.
var Types = []Type{LG, LL, LLG, LLL}

var typeNames = [...]string{
	LG:  "LG",
	LL:  "LL",
	LLG: "LLG",
	LLL: "LLL",
}

var typeDescriptions = [...]string{
	LG:  "L-G (Line-to-Ground)",
	LL:  "L-L (Line-to-Line)",
	LLG: "L-L-G (2-Line-Ground)",
	LLL: "L-L-L (3-Phase Bolted)",
}

func (t Type) valid() bool {
	return t >= LG && t <= LLL
}

func (t Type) String() string {
	if !t.valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Description is the long operator-facing name, e.g. "L-G (Line-to-Ground)".
func (t Type) Description() string {
	if !t.valid() {
		return t.String()
	}
	return typeDescriptions[t]
}

// ParseType accepts the short name ("LLG"), the hyphenated form ("L-L-G") or the
// full description, case-insensitively.
func ParseType(s string) (Type, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if i := strings.IndexByte(key, ' '); i > 0 {
		key = key[:i]
	}
	key = strings.ReplaceAll(key, "-", "")
	for _, t := range Types {
		if typeNames[t] == key {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown fault type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("invalid fault type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so fault types decode from
// YAML, JSON and mapstructure.TextUnmarshallerHookFunc.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
