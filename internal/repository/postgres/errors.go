package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/utafrali/reviewhub/pkg/errors"
)

// mapError wraps err with op and attaches the matching sentinel for
// conditions callers branch on: missing rows are reported as not found,
// unique violations as conflicts. Other constraint violations stay plain
// storage errors.
func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%s: %w: %w", op, apperrors.ErrConflict, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// mapInsertError is mapError for statements that add rows. There a foreign
// key violation means the referenced parent row is missing.
func mapInsertError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return fmt.Errorf("%s: %w: %w", op, apperrors.ErrNotFound, err)
	}
	return mapError(op, err)
}
