// Package locking defines lock modes and the locking strategies a dialect
// selects for them.
package locking

import "strings"

// Mode is a requested lock mode.
type Mode int

// Lock modes, ordered by strength.
const (
	None Mode = iota
	Read
	Optimistic
	OptimisticForceIncrement
	Upgrade
	PessimisticRead
	PessimisticWrite
	PessimisticForceIncrement
)

// Lock timeouts in milliseconds. Positive values wait at most that long.
const (
	WaitForever = 0
	NoWait      = -1
	SkipLocked  = -2
)

var modeNames = [...]string{
	"NONE", "READ", "OPTIMISTIC", "OPTIMISTIC_FORCE_INCREMENT", "UPGRADE",
	"PESSIMISTIC_READ", "PESSIMISTIC_WRITE", "PESSIMISTIC_FORCE_INCREMENT",
}

var modeLevels = [...]int{0, 5, 6, 7, 10, 12, 13, 17}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "UNKNOWN"
}

// Level is the strength of m; stronger locks have higher levels.
func (m Mode) Level() int {
	if m >= 0 && int(m) < len(modeLevels) {
		return modeLevels[m]
	}
	return -1
}

// GreaterThan reports whether m is stronger than o.
func (m Mode) GreaterThan(o Mode) bool { return m.Level() > o.Level() }

// Pessimistic reports whether m acquires a database row lock.
func (m Mode) Pessimistic() bool {
	switch m {
	case Upgrade, PessimisticRead, PessimisticWrite, PessimisticForceIncrement:
		return true
	}
	return false
}

// Exclusive reports whether m needs a write (exclusive) row lock.
func (m Mode) Exclusive() bool {
	return m.Pessimistic() && m != PessimisticRead
}

// Modes returns every lock mode in ascending strength.
func Modes() []Mode {
	out := make([]Mode, len(modeNames))
	for i := range out {
		out[i] = Mode(i)
	}
	return out
}

// ParseMode parses a mode name such as "pessimistic_write".
func ParseMode(s string) (Mode, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == s {
			return Mode(i), true
		}
	}
	return None, false
}
