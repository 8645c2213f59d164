package dashboard

import (
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/platform/activity"
)

// Counts are the headline figures computed in the store.
type Counts struct {
	Patients            int             `json:"patients"`
	ActivePatients      int             `json:"active_patients"`
	ActiveServices      int             `json:"active_medical_services"`
	ActivePrescriptions int             `json:"active_prescriptions"`
	PendingInvoices     int             `json:"pending_invoices"`
	OverdueInvoices     int             `json:"overdue_invoices"`
	Revenue             decimal.Decimal `json:"revenue"`
	Outstanding         decimal.Decimal `json:"outstanding"`
}

type Stats struct {
	Counts
	RecentActivity []activity.View `json:"recent_activity"`
}
