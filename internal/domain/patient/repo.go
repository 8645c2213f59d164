package patient

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Patient, error)
	// Delete returns the removed row, or nil when nothing matched.
	Delete(ctx context.Context, id uuid.UUID) (*Patient, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error)
}
