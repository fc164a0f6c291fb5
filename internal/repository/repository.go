// Package repository defines the Record Store contract.
//
// Every backend (process memory, SQLite, a single key in a key-value store)
// implements HardshipRepository. Services depend on this interface only, so
// the same mutation rules run unchanged on top of any of them.
//
// OWNERSHIP:
// A store owns its records. Reads return deep copies, and the only way to
// change a stored record is Update, which runs a mutate function against a
// private copy and commits it only if the function returns nil. That makes
// each operation atomic: a validation error inside mutate leaves the store
// exactly as it was.
package repository

import (
	"context"

	"github.com/sakif/hardship-board/internal/model"
)

// MutateFunc edits a record in place. Returning an error aborts the update.
type MutateFunc func(h *model.Hardship) error

type HardshipRepository interface {
	// List returns every record. Order is backend-defined.
	List(ctx context.Context) ([]model.Hardship, error)
	// Insert stores h and assigns h.ID.
	Insert(ctx context.Context, h *model.Hardship) error
	// GetByID returns apperror.ErrNotFound when id is absent.
	GetByID(ctx context.Context, id int64) (*model.Hardship, error)
	// Update applies mutate atomically and returns the committed record.
	Update(ctx context.Context, id int64, mutate MutateFunc) (*model.Hardship, error)
	// Delete returns apperror.ErrNotFound when id is absent.
	Delete(ctx context.Context, id int64) error
}
