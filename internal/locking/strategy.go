package locking

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotVersioned is returned when a strategy needs a version column the
// lockable does not have.
var ErrNotVersioned = errors.New("locking: strategy requires a versioned table")

// Kind identifies a locking strategy.
type Kind int

// Strategy kinds.
const (
	KindSelect Kind = iota
	KindUpdate
	KindPessimisticWriteUpdate
	KindPessimisticReadUpdate
	KindPessimisticForceIncrement
	KindOptimistic
	KindOptimisticForceIncrement
)

var kindNames = [...]string{
	"SelectLockingStrategy",
	"UpdateLockingStrategy",
	"PessimisticWriteUpdateLockingStrategy",
	"PessimisticReadUpdateLockingStrategy",
	"PessimisticForceIncrementLockingStrategy",
	"OptimisticLockingStrategy",
	"OptimisticForceIncrementLockingStrategy",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UnknownLockingStrategy"
}

// Phase tells when a strategy touches the database.
type Phase int

// Phases.
const (
	// Immediate strategies run their statement when the lock is requested.
	Immediate Phase = iota
	// BeforeCompletion strategies run their statement just before the
	// transaction completes.
	BeforeCompletion
)

// Selector maps a lock mode on a lockable to a strategy kind. Selectors
// must be total.
type Selector func(Mode, Lockable) Kind

// DefaultSelector is used by dialects that can lock rows with a SELECT clause.
func DefaultSelector(m Mode, _ Lockable) Kind {
	switch m {
	case PessimisticForceIncrement:
		return KindPessimisticForceIncrement
	case Optimistic:
		return KindOptimistic
	case OptimisticForceIncrement:
		return KindOptimisticForceIncrement
	}
	// PessimisticWrite, PessimisticRead, Upgrade, Read, None
	return KindSelect
}

// UpdateSelector is used by dialects without a native row-lock clause: locks
// stronger than Read are taken by updating the version column. Without a
// version column the non-incrementing modes fall back to a select.
func UpdateSelector(m Mode, l Lockable) Kind {
	switch m {
	case PessimisticForceIncrement:
		return KindPessimisticForceIncrement
	case PessimisticWrite:
		if !l.Versioned() {
			return KindSelect
		}
		return KindPessimisticWriteUpdate
	case PessimisticRead:
		if !l.Versioned() {
			return KindSelect
		}
		return KindPessimisticReadUpdate
	case Optimistic:
		return KindOptimistic
	case OptimisticForceIncrement:
		return KindOptimisticForceIncrement
	}
	if m.GreaterThan(Read) && l.Versioned() {
		return KindUpdate
	}
	return KindSelect
}

// Lockable is the table a strategy locks rows of.
type Lockable struct {
	Table         string
	IDColumns     []string
	VersionColumn string
}

// Versioned reports whether the table has a version column.
func (l Lockable) Versioned() bool { return l.VersionColumn != "" }

// Syntax is the part of a dialect a strategy renders SQL with.
type Syntax interface {
	// LockClause returns the clause appended to a SELECT, e.g. " for update nowait".
	LockClause(mode Mode, timeout int, aliases ...string) string
	// LockHint returns the table hint placed after a table name, e.g. " with (updlock, rowlock)".
	LockHint(mode Mode, timeout int) string
	// Placeholder returns the parameter marker for the 1-based position i.
	Placeholder(i int) string
}

// Strategy is a resolved (lockable, mode) pair.
type Strategy struct {
	kind     Kind
	mode     Mode
	lockable Lockable
}

// NewStrategy validates and builds a strategy.
func NewStrategy(kind Kind, mode Mode, l Lockable) (Strategy, error) {
	if l.Table == "" || len(l.IDColumns) == 0 {
		return Strategy{}, fmt.Errorf("locking: %s needs a table and id columns", kind)
	}
	if kind != KindSelect && !l.Versioned() {
		return Strategy{}, fmt.Errorf("%w: %s [%s] on %s", ErrNotVersioned, kind, mode, l.Table)
	}
	return Strategy{kind: kind, mode: mode, lockable: l}, nil
}

// Kind returns the strategy kind.
func (s Strategy) Kind() Kind { return s.kind }

// Mode returns the lock mode the strategy was selected for.
func (s Strategy) Mode() Mode { return s.mode }

// Lockable returns the locked table.
func (s Strategy) Lockable() Lockable { return s.lockable }

// Phase reports when the strategy's statement runs.
func (s Strategy) Phase() Phase {
	if s.kind == KindOptimistic || s.kind == KindOptimisticForceIncrement {
		return BeforeCompletion
	}
	return Immediate
}

// SQL renders the statement the strategy executes. Parameters are the id
// columns in order followed by the version, and for update-based strategies
// the new version value first.
func (s Strategy) SQL(syn Syntax, timeout int) string {
	l := s.lockable
	var (
		b strings.Builder
		n int
	)
	next := func() string {
		n++
		return syn.Placeholder(n)
	}
	idWhere := func() {
		b.WriteString(" where ")
		for i, c := range l.IDColumns {
			if i > 0 {
				b.WriteString(" and ")
			}
			b.WriteString(c + " = " + next())
		}
	}

	switch s.kind {
	case KindSelect:
		b.WriteString("select " + strings.Join(l.IDColumns, ", ") + " from " + l.Table)
		b.WriteString(syn.LockHint(s.mode, timeout))
		idWhere()
		if l.Versioned() {
			b.WriteString(" and " + l.VersionColumn + " = " + next())
		}
		b.WriteString(syn.LockClause(s.mode, timeout))
	case KindOptimistic:
		b.WriteString("select " + l.VersionColumn + " from " + l.Table)
		idWhere()
	default:
		b.WriteString("update " + l.Table + " set " + l.VersionColumn + " = " + next())
		idWhere()
		b.WriteString(" and " + l.VersionColumn + " = " + next())
	}
	return b.String()
}
