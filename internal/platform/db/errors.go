package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup, update or toggle matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("record already exists")
	// ErrReference is returned when a write points at a missing row or a
	// delete would orphan dependants.
	ErrReference = errors.New("referenced record missing or still in use")
	// ErrInvalid marks input rejected before it reaches the store.
	ErrInvalid = errors.New("invalid input")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// MapError translates driver errors into the package sentinels. Errors it does
// not recognise are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", ErrReference, pgErr.ConstraintName)
		}
	}
	return err
}
