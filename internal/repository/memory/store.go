// Package memory is an in-process implementation of the repository contracts.
// It mirrors the guarded and clamped SQL statements of the gorm
// implementation and backs service tests and the demo sandbox.
package memory

import (
	"context"
	"fmt"
	"sync"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/contract"
	"ai-chatbot-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type usageKey struct {
	workspaceId uuid.UUID
	month       string
}

// Store holds every table. A Store is a unitofwork.RepositoryFactory.
type Store struct {
	mu sync.Mutex

	accounts   map[uuid.UUID]entity.Account
	workspaces map[uuid.UUID]entity.Workspace
	documents  map[uuid.UUID]entity.KnowledgeDocument
	chunks     map[uuid.UUID]entity.KnowledgeChunk
	usage      map[usageKey]entity.UsageCounter
	orders     map[uuid.UUID]entity.Order
	runs       []entity.RecoveryRun

	failures map[string]error
}

func NewStore() *Store {
	return &Store{
		accounts:   make(map[uuid.UUID]entity.Account),
		workspaces: make(map[uuid.UUID]entity.Workspace),
		documents:  make(map[uuid.UUID]entity.KnowledgeDocument),
		chunks:     make(map[uuid.UUID]entity.KnowledgeChunk),
		usage:      make(map[usageKey]entity.UsageCounter),
		orders:     make(map[uuid.UUID]entity.Order),
		failures:   make(map[string]error),
	}
}

// FailOn makes every later call of op return err. A nil err clears it.
// Op names are "<repository>.<method>", e.g. "account.ApplySubscription".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// fail must be called with s.mu held.
func (s *Store) fail(op string) error {
	return s.failures[op]
}

func (s *Store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: s}
}

// RecoveryRuns returns a copy of every persisted run.
func (s *Store) RecoveryRuns() []entity.RecoveryRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.RecoveryRun, len(s.runs))
	copy(out, s.runs)
	return out
}

type snapshot struct {
	accounts   map[uuid.UUID]entity.Account
	workspaces map[uuid.UUID]entity.Workspace
	documents  map[uuid.UUID]entity.KnowledgeDocument
	chunks     map[uuid.UUID]entity.KnowledgeChunk
	usage      map[usageKey]entity.UsageCounter
	orders     map[uuid.UUID]entity.Order
	runs       []entity.RecoveryRun
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *Store) snapshot() *snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &snapshot{
		accounts:   cloneMap(s.accounts),
		workspaces: cloneMap(s.workspaces),
		documents:  cloneMap(s.documents),
		chunks:     cloneMap(s.chunks),
		usage:      cloneMap(s.usage),
		orders:     cloneMap(s.orders),
		runs:       append([]entity.RecoveryRun(nil), s.runs...),
	}
}

func (s *Store) restore(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.workspaces = snap.workspaces
	s.documents = snap.documents
	s.chunks = snap.chunks
	s.usage = snap.usage
	s.orders = snap.orders
	s.runs = snap.runs
}

// unitOfWork rolls back by restoring the snapshot taken at Begin. It gives
// atomicity but no isolation from concurrent units.
type unitOfWork struct {
	store *Store
	snap  *snapshot
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.snap != nil {
		return fmt.Errorf("transaction already started")
	}
	u.snap = u.store.snapshot()
	return nil
}

func (u *unitOfWork) Commit() error {
	if u.snap == nil {
		return fmt.Errorf("no transaction to commit")
	}
	u.snap = nil
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.snap == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.restore(u.snap)
	u.snap = nil
	return nil
}

func (u *unitOfWork) AccountRepository() contract.AccountRepository {
	return &accountRepository{store: u.store}
}

func (u *unitOfWork) WorkspaceRepository() contract.WorkspaceRepository {
	return &workspaceRepository{store: u.store}
}

func (u *unitOfWork) KnowledgeRepository() contract.KnowledgeRepository {
	return &knowledgeRepository{store: u.store}
}

func (u *unitOfWork) UsageRepository() contract.UsageRepository {
	return &usageRepository{store: u.store}
}

func (u *unitOfWork) OrderRepository() contract.OrderRepository {
	return &orderRepository{store: u.store}
}
