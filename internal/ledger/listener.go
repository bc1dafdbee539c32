package ledger

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"budgetbook/internal/core"
)

var ErrNoCapability = errors.New("listener implements no ledger callback")

// AddedListener is notified after a transaction is added and persisted.
type AddedListener interface {
	OnTransactionAdded(ctx context.Context, tx core.Transaction)
}

// UpdatedListener receives the value previously at the index and the one
// that replaced it, so deltas need no rescan.
type UpdatedListener interface {
	OnTransactionUpdated(ctx context.Context, old, updated core.Transaction)
}

// RemovedListener is notified only when a removal actually happened.
type RemovedListener interface {
	OnTransactionRemoved(ctx context.Context, tx core.Transaction)
}

// ListenerFuncs adapts plain functions to the listener interfaces. Nil
// fields are ignored. Register it by pointer.
type ListenerFuncs struct {
	Added   func(ctx context.Context, tx core.Transaction)
	Updated func(ctx context.Context, old, updated core.Transaction)
	Removed func(ctx context.Context, tx core.Transaction)
}

func (f *ListenerFuncs) OnTransactionAdded(ctx context.Context, tx core.Transaction) {
	if f.Added != nil {
		f.Added(ctx, tx)
	}
}

func (f *ListenerFuncs) OnTransactionUpdated(ctx context.Context, old, updated core.Transaction) {
	if f.Updated != nil {
		f.Updated(ctx, old, updated)
	}
}

func (f *ListenerFuncs) OnTransactionRemoved(ctx context.Context, tx core.Transaction) {
	if f.Removed != nil {
		f.Removed(ctx, tx)
	}
}

type registration struct {
	key     any
	added   AddedListener
	updated UpdatedListener
	removed RemovedListener
}

func newRegistration(l any) (registration, error) {
	r := registration{key: l}
	r.added, _ = l.(AddedListener)
	r.updated, _ = l.(UpdatedListener)
	r.removed, _ = l.(RemovedListener)
	if r.added == nil && r.updated == nil && r.removed == nil {
		return registration{}, ErrNoCapability
	}
	return r, nil
}

// sameListener compares by identity. Values that cannot be compared, such
// as structs holding a slice in an interface field, never match, so each
// registration of one is distinct.
func sameListener(a, b any) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if !reflect.ValueOf(a).Comparable() || !reflect.ValueOf(b).Comparable() {
		return false
	}
	return a == b
}

// listenerSet keeps registrations in order. Notifications iterate a snapshot
// so callbacks may register or remove listeners.
type listenerSet struct {
	mu   sync.Mutex
	regs []registration
}

func (s *listenerSet) add(l any) (bool, error) {
	if l == nil {
		return false, ErrNoCapability
	}
	r, err := newRegistration(l)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.regs {
		if sameListener(existing.key, l) {
			return false, nil
		}
	}
	s.regs = append(s.regs, r)
	return true, nil
}

func (s *listenerSet) remove(l any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.regs {
		if sameListener(existing.key, l) {
			s.regs = append(s.regs[:i:i], s.regs[i+1:]...)
			return true
		}
	}
	return false
}

func (s *listenerSet) snapshot() []registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]registration(nil), s.regs...)
}

func (s *listenerSet) notifyAdded(ctx context.Context, tx core.Transaction) {
	for _, r := range s.snapshot() {
		if r.added != nil {
			r.added.OnTransactionAdded(ctx, tx)
		}
	}
}

func (s *listenerSet) notifyUpdated(ctx context.Context, old, updated core.Transaction) {
	for _, r := range s.snapshot() {
		if r.updated != nil {
			r.updated.OnTransactionUpdated(ctx, old, updated)
		}
	}
}

func (s *listenerSet) notifyRemoved(ctx context.Context, tx core.Transaction) {
	for _, r := range s.snapshot() {
		if r.removed != nil {
			r.removed.OnTransactionRemoved(ctx, tx)
		}
	}
}
