// Package repositories contains the sqlx-backed persistence layer.
// Each repository is an interface plus one postgres implementation.
// Mutations that depend on prior state are compare-and-set updates
// guarded on that state, so concurrent transitions on the same record
// settle on exactly one winner; multi-row transitions run in a
// transaction.
package repositories

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
)

const uniqueViolation = "23505"

// storeErr normalizes driver failures into the shared taxonomy.
// sql.ErrNoRows is handled at call sites where a domain-specific
// not-found reason exists.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if apperr.IsTimeout(err) {
		return apperr.Transient(err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return apperr.Conflict("record already exists")
	}
	return apperr.Transient(err)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
