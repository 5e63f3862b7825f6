// Package memory is a transactional in-memory implementation of the repository ports.
// Writers are serialized; each unit of work runs against a private copy of the state that
// replaces the shared state only when the unit succeeds.
package memory

import (
	"context"
	"sync"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

type state struct {
	accounts  map[string]domain.Account
	entries   map[string]domain.JournalEntry
	periods   map[string]domain.FiscalPeriod
	snapshots map[string][]domain.ClosingSnapshot
	bankTxns  map[string]domain.BankTransaction
	matches   map[string]domain.MatchRecord
}

func newState() *state {
	return &state{
		accounts:  map[string]domain.Account{},
		entries:   map[string]domain.JournalEntry{},
		periods:   map[string]domain.FiscalPeriod{},
		snapshots: map[string][]domain.ClosingSnapshot{},
		bankTxns:  map[string]domain.BankTransaction{},
		matches:   map[string]domain.MatchRecord{},
	}
}

// clone copies every map. Slices held by values are never modified in place, so they are shared.
func (s *state) clone() *state {
	c := &state{
		accounts:  make(map[string]domain.Account, len(s.accounts)),
		entries:   make(map[string]domain.JournalEntry, len(s.entries)),
		periods:   make(map[string]domain.FiscalPeriod, len(s.periods)),
		snapshots: make(map[string][]domain.ClosingSnapshot, len(s.snapshots)),
		bankTxns:  make(map[string]domain.BankTransaction, len(s.bankTxns)),
		matches:   make(map[string]domain.MatchRecord, len(s.matches)),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.periods {
		c.periods[k] = v
	}
	for k, v := range s.snapshots {
		c.snapshots[k] = v
	}
	for k, v := range s.bankTxns {
		c.bankTxns[k] = v
	}
	for k, v := range s.matches {
		c.matches[k] = v
	}
	return c
}

// handle gives repositories access to a state, either the shared one or a transaction's copy.
type handle interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
}

// Store holds the shared state.
type Store struct {
	txMu sync.Mutex   // serializes writers
	mu   sync.RWMutex // guards st
	st   *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Repositories returns repositories that read the committed state and write in their own
// single-statement transactions.
func (s *Store) Repositories() portsrepo.RepositoryProvider {
	p := providerFor(rootHandle{s})
	p.TxManager = s
	return p
}

// WithinTransaction runs fn against a private copy of the state and publishes it if fn succeeds.
// fn must only use the repositories it is handed.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.commit(func(work *state) error {
		return fn(ctx, providerFor(&txHandle{st: work}))
	})
}

// commit must be called with txMu held.
func (s *Store) commit(fn func(work *state) error) error {
	s.mu.RLock()
	work := s.st.clone()
	s.mu.RUnlock()

	if err := fn(work); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

func providerFor(h handle) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:        &accountRepository{h: h},
		JournalRepo:        &journalRepository{h: h},
		PeriodRepo:         &periodRepository{h: h},
		ReconciliationRepo: &reconciliationRepository{h: h},
	}
}

type rootHandle struct{ s *Store }

func (r rootHandle) read(fn func(st *state) error) error {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return fn(r.s.st)
}

func (r rootHandle) write(fn func(st *state) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	return r.s.commit(fn)
}

type txHandle struct{ st *state }

func (t *txHandle) read(fn func(st *state) error) error  { return fn(t.st) }
func (t *txHandle) write(fn func(st *state) error) error { return fn(t.st) }

var _ portsrepo.TransactionManager = (*Store)(nil)
