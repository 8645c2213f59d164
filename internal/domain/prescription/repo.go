package prescription

import (
	"context"

	"github.com/google/uuid"
)

type PrescriptionRepository interface {
	Create(ctx context.Context, rx *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Prescription, error)
	// Delete returns the removed row, or nil when nothing matched.
	Delete(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Prescription, int, error)
}
