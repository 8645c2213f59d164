package medservice

import (
	"context"

	"github.com/google/uuid"
)

type MedicalServiceRepository interface {
	Create(ctx context.Context, ms *MedicalService) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalService, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*MedicalService, error)
	// Delete returns the removed row, or nil when nothing matched.
	Delete(ctx context.Context, id uuid.UUID) (*MedicalService, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*MedicalService, int, error)
}
