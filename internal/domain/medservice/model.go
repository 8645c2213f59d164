package medservice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MedicalService is a billable procedure or consultation offered by the hospital.
type MedicalService struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Description     *string         `db:"description" json:"description,omitempty"`
	Category        *string         `db:"category" json:"category,omitempty"`
	Price           decimal.Decimal `db:"price" json:"price"`
	DurationMinutes *int            `db:"duration_minutes" json:"duration_minutes,omitempty"`
	Active          bool            `db:"active" json:"active"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

type MedicalServiceUpdate struct {
	Name            *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description     *string          `json:"description"`
	Category        *string          `json:"category" validate:"omitempty,max=100"`
	Price           *decimal.Decimal `json:"price"`
	DurationMinutes *int             `json:"duration_minutes" validate:"omitempty,min=1"`
	Active          *bool            `json:"active"`
}

func (u *MedicalServiceUpdate) Fields() map[string]interface{} {
	f := make(map[string]interface{})
	if u == nil {
		return f
	}
	if u.Name != nil {
		f["name"] = *u.Name
	}
	if u.Description != nil {
		f["description"] = *u.Description
	}
	if u.Category != nil {
		f["category"] = *u.Category
	}
	if u.Price != nil {
		f["price"] = *u.Price
	}
	if u.DurationMinutes != nil {
		f["duration_minutes"] = *u.DurationMinutes
	}
	if u.Active != nil {
		f["active"] = *u.Active
	}
	return f
}
