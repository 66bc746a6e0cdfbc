// Package optimistic applies a local change before the server confirms it
// and then settles it with the server's answer or rolls it back.
package optimistic

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
)

// Phase of an optimistic field
type Phase int

const (
	Clean Phase = iota
	Pending
	Confirmed
	RolledBack
)

func (p Phase) String() string {
	switch p {
	case Clean:
		return "clean"
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrNotPending is returned when settling a field that is not pending
var ErrNotPending = stderrors.New("optimistic: field is not pending")

// Field is one optimistically mutated value:
// Clean -> Pending(optimistic) -> Confirmed(server) | RolledBack(base).
type Field[T any] struct {
	mu    sync.Mutex
	phase Phase
	base  T
	value T
}

// NewField starts a clean field at value
func NewField[T any](value T) *Field[T] {
	return &Field[T]{base: value, value: value}
}

// Begin captures the current value as the base and moves to next
func (f *Field[T]) Begin(next T) (base T, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == Pending {
		return base, fmt.Errorf("optimistic: field already pending")
	}
	f.base = f.value
	f.value = next
	f.phase = Pending
	return f.base, nil
}

// Confirm replaces the optimistic value with the server's
func (f *Field[T]) Confirm(server T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase != Pending {
		return ErrNotPending
	}
	f.value = server
	f.phase = Confirmed
	return nil
}

// Rollback restores the captured base value
func (f *Field[T]) Rollback() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase != Pending {
		return ErrNotPending
	}
	f.value = f.base
	f.phase = RolledBack
	return nil
}

func (f *Field[T]) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

func (f *Field[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *Field[T]) Base() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.base
}

// Outcome of a mutation
type Outcome int

const (
	// Committed: the server accepted the mutation and its value was applied
	Committed Outcome = iota
	// Reconciled: the mutation failed but a fresh server value was applied
	Reconciled
	// Reverted: the mutation and the reconciliation failed; the base was restored
	Reverted
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Reconciled:
		return "reconciled"
	case Reverted:
		return "reverted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Mutation describes one optimistic change against shared state
type Mutation[T any] struct {
	// Read returns the value currently shown
	Read func() T
	// Write shows a value
	Write func(T)
	// Apply computes the optimistic value from the current one
	Apply func(T) T
	// Commit sends the change; it receives the pre-mutation value and
	// returns the server's authoritative value
	Commit func(ctx context.Context, base T) (T, error)
	// Reconcile fetches the canonical value after a failed Commit. Optional.
	Reconcile func(ctx context.Context) (T, error)
}

// Run performs m: optimistic write, commit, then confirm, reconcile or revert.
// The returned error is Commit's error; it is nil only for Committed.
func Run[T any](ctx context.Context, m Mutation[T]) (T, Outcome, error) {
	current := m.Read()
	f := NewField(current)
	base, _ := f.Begin(m.Apply(current))
	m.Write(f.Value())

	server, err := m.Commit(ctx, base)
	if err == nil {
		_ = f.Confirm(server)
		m.Write(f.Value())
		return f.Value(), Committed, nil
	}

	if m.Reconcile != nil {
		if canonical, rerr := m.Reconcile(ctx); rerr == nil {
			_ = f.Confirm(canonical)
			m.Write(f.Value())
			return f.Value(), Reconciled, err
		}
	}

	_ = f.Rollback()
	m.Write(f.Value())
	return f.Value(), Reverted, err
}
