package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/reviewhub/internal/repository"
	"github.com/utafrali/reviewhub/pkg/database"
)

// Pool is the subset of *pgxpool.Pool the gateway needs.
type Pool interface {
	database.DBTX
	database.TxBeginner
}

// Transactor implements repository.Transactor on top of a pgx pool.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a new PostgreSQL-backed unit of work runner.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// WithinTx runs fn in a read-committed transaction.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	return database.WithTx(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewStore(tx))
	})
}

// Store binds every repository to the same connection or transaction.
type Store struct {
	reviews    *ReviewRepository
	attributes *AttributeRepository
	photos     *PhotoRepository
	votes      *VoteRepository
	catalog    *CatalogRepository
}

// NewStore creates a Store whose repositories all run on db.
func NewStore(db database.DBTX) *Store {
	return &Store{
		reviews:    NewReviewRepository(db),
		attributes: NewAttributeRepository(db),
		photos:     NewPhotoRepository(db),
		votes:      NewVoteRepository(db),
		catalog:    NewCatalogRepository(db),
	}
}

func (s *Store) Reviews() repository.ReviewRepository       { return s.reviews }
func (s *Store) Attributes() repository.AttributeRepository { return s.attributes }
func (s *Store) Photos() repository.PhotoRepository         { return s.photos }
func (s *Store) Votes() repository.VoteRepository           { return s.votes }
func (s *Store) Catalog() repository.CatalogRepository      { return s.catalog }

var (
	_ repository.Transactor = (*Transactor)(nil)
	_ repository.Store      = (*Store)(nil)
)
