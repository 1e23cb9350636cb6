// Package memory provides an in-process implementation of the persistence
// gateway for tests and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/utafrali/reviewhub/internal/repository"
)

// Store holds the committed state. Units of work run one at a time against a
// private copy that replaces the committed state only on success, so an
// aborted unit of work leaves no trace.
type Store struct {
	mu        sync.Mutex
	committed *snapshot
	now       func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{committed: newSnapshot(), now: time.Now}
}

// AddProduct registers a product so reviews can reference it.
func (s *Store) AddProduct(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed.products[id] = struct{}{}
}

// AddUser registers a user.
func (s *Store) AddUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed.users[id] = struct{}{}
}

// WithinTx runs fn against a copy of the committed state.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.committed.clone()
	if err := fn(ctx, &tx{data: work, now: s.now}); err != nil {
		return err
	}
	s.committed = work
	return nil
}

// tx is the repository.Store view of one unit of work.
type tx struct {
	data *snapshot
	now  func() time.Time
}

func (t *tx) Reviews() repository.ReviewRepository       { return reviewRepo{t} }
func (t *tx) Attributes() repository.AttributeRepository { return attributeRepo{t} }
func (t *tx) Photos() repository.PhotoRepository         { return photoRepo{t} }
func (t *tx) Votes() repository.VoteRepository           { return voteRepo{t} }
func (t *tx) Catalog() repository.CatalogRepository      { return catalogRepo{t} }

var (
	_ repository.Transactor = (*Store)(nil)
	_ repository.Store      = (*tx)(nil)
)
