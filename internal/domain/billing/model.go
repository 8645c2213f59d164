package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
	StatusOverdue   = "overdue"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled, StatusOverdue:
		return true
	}
	return false
}

// Invoice maps to the invoices table.
type Invoice struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	InvoiceNumber string          `db:"invoice_number" json:"invoice_number"`
	PatientID     uuid.UUID       `db:"patient_id" json:"patient_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Status        string          `db:"status" json:"status"`
	DueDate       *time.Time      `db:"due_date" json:"due_date,omitempty"`
	PaidAt        *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	Notes         *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// InvoiceUpdate carries a partial update. Nil fields are left untouched.
type InvoiceUpdate struct {
	InvoiceNumber *string          `json:"invoice_number" validate:"omitempty,startswith=INV-,max=20"`
	Amount        *decimal.Decimal `json:"amount"`
	Status        *string          `json:"status" validate:"omitempty,oneof=pending paid cancelled overdue"`
	DueDate       *time.Time       `json:"due_date"`
	Notes         *string          `json:"notes"`
}

// Fields returns the column assignments for the non-nil fields.
func (u *InvoiceUpdate) Fields() map[string]interface{} {
	f := make(map[string]interface{})
	if u == nil {
		return f
	}
	if u.InvoiceNumber != nil {
		f["invoice_number"] = *u.InvoiceNumber
	}
	if u.Amount != nil {
		f["amount"] = *u.Amount
	}
	if u.Status != nil {
		f["status"] = *u.Status
	}
	if u.DueDate != nil {
		f["due_date"] = *u.DueDate
	}
	if u.Notes != nil {
		f["notes"] = *u.Notes
	}
	return f
}
