package prescription

import (
	"time"

	"github.com/google/uuid"
)

type Prescription struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	PrescribedBy   *string   `db:"prescribed_by" json:"prescribed_by,omitempty"`
	MedicationName string    `db:"medication_name" json:"medication_name"`
	Dosage         string    `db:"dosage" json:"dosage"`
	Frequency      string    `db:"frequency" json:"frequency"`
	DurationDays   *int      `db:"duration_days" json:"duration_days,omitempty"`
	Instructions   *string   `db:"instructions" json:"instructions,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type PrescriptionUpdate struct {
	MedicationName *string `json:"medication_name" validate:"omitempty,min=1,max=200"`
	Dosage         *string `json:"dosage" validate:"omitempty,min=1,max=100"`
	Frequency      *string `json:"frequency" validate:"omitempty,min=1,max=100"`
	DurationDays   *int    `json:"duration_days" validate:"omitempty,min=1"`
	Instructions   *string `json:"instructions"`
	Active         *bool   `json:"active"`
}

func (u *PrescriptionUpdate) Fields() map[string]interface{} {
	f := make(map[string]interface{})
	if u == nil {
		return f
	}
	if u.MedicationName != nil {
		f["medication_name"] = *u.MedicationName
	}
	if u.Dosage != nil {
		f["dosage"] = *u.Dosage
	}
	if u.Frequency != nil {
		f["frequency"] = *u.Frequency
	}
	if u.DurationDays != nil {
		f["duration_days"] = *u.DurationDays
	}
	if u.Instructions != nil {
		f["instructions"] = *u.Instructions
	}
	if u.Active != nil {
		f["active"] = *u.Active
	}
	return f
}
