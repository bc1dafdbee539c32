package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"budgetbook/internal/core"
	"budgetbook/internal/log"
)

// ErrPersistence is returned, wrapped, by a mutator whose in-memory change
// was applied and announced but could not be saved.
var ErrPersistence = errors.New("ledger change not persisted")

// RecordStore loads and saves the whole ledger.
type RecordStore interface {
	Load(ctx context.Context) ([]core.Transaction, error)
	Save(ctx context.Context, txs []core.Transaction) error
}

type Options struct {
	Logger *slog.Logger
	// OnPersistFailure, if set, is called with the operation name each time
	// a save fails.
	OnPersistFailure func(op string, err error)
}

// Service is the single point of mutation for a ledger. Each of
// AddTransaction, UpdateTransaction and RemoveTransaction runs
// mutate, persist and notify as one critical section. Readers never observe
// a half-applied mutation and may be called from inside listener callbacks.
// Listeners run synchronously on the mutating goroutine and must not call
// the mutators.
type Service struct {
	mutateMu sync.Mutex
	mu       sync.RWMutex
	agg      *Aggregator

	store     RecordStore
	listeners listenerSet
	opts      Options
	logger    *slog.Logger
}

func NewService(store RecordStore, classifier Classifier, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		agg:    NewAggregator(classifier),
		store:  store,
		opts:   opts,
		logger: logger.With(log.FieldComponent, log.ComponentLedger),
	}
}

// Load replaces the in-memory list with the store's contents and returns the
// number of transactions. On error the current list is left untouched.
func (s *Service) Load(ctx context.Context) (int, error) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	txs, err := s.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	s.mu.Lock()
	s.agg.Replace(txs)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Ledger loaded", log.FieldOperation, log.OpLoad, log.FieldCount, len(txs))
	return len(txs), nil
}

// AddTransaction validates and classifies the transaction, appends it,
// persists the ledger and notifies listeners. A returned ErrPersistence
// means the transaction was added but not saved.
func (s *Service) AddTransaction(ctx context.Context, date, description string, amount float64, typ core.TransactionType) error {
	tx := core.Transaction{Date: date, Description: description, Amount: amount, Type: typ}
	if err := tx.Validate(); err != nil {
		return err
	}

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	s.mu.Lock()
	added := s.agg.Add(tx)
	snapshot := s.agg.Transactions()
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Transaction added",
		log.NewFields().WithOperation(log.OpAdd).
			WithTransaction(added.Date, added.Description, added.Amount, added.Type.String(), added.Category).ToSlice()...)

	perr := s.persist(ctx, log.OpAdd, snapshot)
	s.listeners.notifyAdded(ctx, added)
	return perr
}

// UpdateTransaction replaces the transaction at index. An out of range index
// returns an *IndexError and changes nothing; no listener is called.
func (s *Service) UpdateTransaction(ctx context.Context, index int, date, description string, amount float64, typ core.TransactionType) error {
	tx := core.Transaction{Date: date, Description: description, Amount: amount, Type: typ}
	if err := tx.Validate(); err != nil {
		return err
	}

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	s.mu.Lock()
	old, updated, err := s.agg.Update(index, tx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.agg.Transactions()
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Transaction updated",
		append(log.NewFields().WithOperation(log.OpUpdate).
			WithTransaction(updated.Date, updated.Description, updated.Amount, updated.Type.String(), updated.Category).ToSlice(),
			log.FieldIndex, index, "old_amount", old.FormattedAmount())...)

	perr := s.persist(ctx, log.OpUpdate, snapshot)
	s.listeners.notifyUpdated(ctx, old, updated)
	return perr
}

// RemoveTransaction removes the first transaction matching the fields, the
// amount within core.AmountTolerance. It reports whether one was removed;
// when none matches nothing is saved or announced.
func (s *Service) RemoveTransaction(ctx context.Context, date, description string, amount float64, typ core.TransactionType) (bool, error) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	s.mu.Lock()
	removed, ok := s.agg.Remove(date, description, amount, typ)
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	snapshot := s.agg.Transactions()
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Transaction removed",
		log.NewFields().WithOperation(log.OpRemove).
			WithTransaction(removed.Date, removed.Description, removed.Amount, removed.Type.String(), removed.Category).ToSlice()...)

	perr := s.persist(ctx, log.OpRemove, snapshot)
	s.listeners.notifyRemoved(ctx, removed)
	return true, perr
}

func (s *Service) persist(ctx context.Context, op string, txs []core.Transaction) error {
	if err := s.store.Save(ctx, txs); err != nil {
		s.logger.WarnContext(ctx, "Ledger change kept in memory but not saved",
			append(log.NewFields().WithOperation(op).WithError(err).ToSlice(), log.FieldCount, len(txs))...)
		if s.opts.OnPersistFailure != nil {
			s.opts.OnPersistFailure(op, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
	}
	return nil
}

// AddListener registers l, which must implement at least one of
// AddedListener, UpdatedListener and RemovedListener. Registering the same
// listener again is ignored. Listeners are notified in registration order.
func (s *Service) AddListener(l any) error {
	added, err := s.listeners.add(l)
	if err != nil {
		return fmt.Errorf("add listener %T: %w", l, err)
	}
	if !added {
		s.logger.Debug("Listener already registered", "listener", fmt.Sprintf("%T", l))
	}
	return nil
}

// RemoveListener unregisters l and reports whether it was registered.
func (s *Service) RemoveListener(l any) bool {
	return s.listeners.remove(l)
}

// GetAllTransactions returns a copy of the ledger in order.
func (s *Service) GetAllTransactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agg.Transactions()
}

// GetWeeklySpending returns Expense totals keyed by ISO week label.
func (s *Service) GetWeeklySpending() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agg.WeeklySpending()
}

// GetExpenseCategories returns Expense totals keyed by category.
func (s *Service) GetExpenseCategories() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agg.ExpenseCategories()
}

func (s *Service) Summary() core.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agg.Summary()
}

func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agg.Len()
}
