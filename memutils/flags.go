package memutils

import (
	"fmt"
	"strings"
)

// Flags is the integer shape shared by the bitmask option types in this
// module.
type Flags interface {
	~int32 | ~uint32
}

// FlagStringMapping accumulates name registrations for the values of a
// bitmask type and renders combined masks as pipe-separated strings.
type FlagStringMapping[T Flags] struct {
	mapping map[T]string
}

func NewFlagStringMapping[T Flags]() FlagStringMapping[T] {
	return FlagStringMapping[T]{mapping: make(map[T]string)}
}

// Register assigns a display name to a single flag bit.
func (m FlagStringMapping[T]) Register(value T, str string) {
	m.mapping[value] = str
}

// FlagsToString renders every set bit of value, known bits by their
// registered names and unknown bits numerically.
func (m FlagStringMapping[T]) FlagsToString(value T) string {
	if value == 0 {
		return "None"
	}

	var sb strings.Builder
	for bit := 0; bit < 32; bit++ {
		single := T(1) << bit
		if value&single == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteRune('|')
		}
		str, ok := m.mapping[single]
		if ok {
			sb.WriteString(str)
		} else {
			sb.WriteString(fmt.Sprintf("0x%x", uint32(single)))
		}
	}
	return sb.String()
}
