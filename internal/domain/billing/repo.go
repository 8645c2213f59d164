package billing

import (
	"context"

	"github.com/google/uuid"
)

type InvoiceRepository interface {
	NumberLookup
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// Update applies fields and returns the row as stored.
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Invoice, error)
	// Delete removes the row and returns it, or nil when nothing matched.
	Delete(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Invoice, int, error)
}
