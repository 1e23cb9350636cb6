package postgres

import (
	"context"

	"github.com/utafrali/reviewhub/pkg/database"
)

const (
	queryProductExists = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`
	queryUserExists    = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
)

// CatalogRepository reads the products and users tables, which are owned by
// the catalog and account services.
type CatalogRepository struct {
	db database.DBTX
}

// NewCatalogRepository creates a new PostgreSQL-backed catalog reader.
func NewCatalogRepository(db database.DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ProductExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, "ProductExists", queryProductExists, id)
}

func (r *CatalogRepository) UserExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, "UserExists", queryUserExists, id)
}

func (r *CatalogRepository) exists(ctx context.Context, op, query string, id int64) (found bool, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, id).Scan(&found); err != nil {
		return false, mapError("check "+op, err)
	}

	return found, nil
}
