package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Address     *string    `db:"address" json:"address,omitempty"`
	BloodGroup  *string    `db:"blood_group" json:"blood_group,omitempty"`
	Active      bool       `db:"active" json:"active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName is the name shown in lists and activity entries.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type PatientUpdate struct {
	FirstName   *string    `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName    *string    `json:"last_name" validate:"omitempty,min=1,max=100"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      *string    `json:"gender" validate:"omitempty,oneof=male female other unknown"`
	Phone       *string    `json:"phone" validate:"omitempty,max=30"`
	Email       *string    `json:"email" validate:"omitempty,email"`
	Address     *string    `json:"address"`
	BloodGroup  *string    `json:"blood_group" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Active      *bool      `json:"active"`
}

// HasName reports whether the update renames the patient.
func (u *PatientUpdate) HasName() bool {
	return u != nil && (u.FirstName != nil || u.LastName != nil)
}

func (u *PatientUpdate) Fields() map[string]interface{} {
	f := make(map[string]interface{})
	if u == nil {
		return f
	}
	if u.FirstName != nil {
		f["first_name"] = *u.FirstName
	}
	if u.LastName != nil {
		f["last_name"] = *u.LastName
	}
	if u.DateOfBirth != nil {
		f["date_of_birth"] = *u.DateOfBirth
	}
	if u.Gender != nil {
		f["gender"] = *u.Gender
	}
	if u.Phone != nil {
		f["phone"] = *u.Phone
	}
	if u.Email != nil {
		f["email"] = *u.Email
	}
	if u.Address != nil {
		f["address"] = *u.Address
	}
	if u.BloodGroup != nil {
		f["blood_group"] = *u.BloodGroup
	}
	if u.Active != nil {
		f["active"] = *u.Active
	}
	return f
}
