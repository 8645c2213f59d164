package dashboard

import (
	"context"

	"github.com/hms/hms/internal/platform/db"
)

type Repository interface {
	Counts(ctx context.Context) (*Counts, error)
}

type repoPG struct{ pool db.Querier }

func NewRepoPG(pool db.Querier) Repository {
	return &repoPG{pool: pool}
}

const countsSQL = `SELECT
	(SELECT COUNT(*) FROM patients),
	(SELECT COUNT(*) FROM patients WHERE active),
	(SELECT COUNT(*) FROM medical_services WHERE active),
	(SELECT COUNT(*) FROM prescriptions WHERE active),
	(SELECT COUNT(*) FROM invoices WHERE status = 'pending'),
	(SELECT COUNT(*) FROM invoices WHERE status = 'overdue'),
	(SELECT COALESCE(SUM(amount), 0) FROM invoices WHERE status = 'paid'),
	(SELECT COALESCE(SUM(amount), 0) FROM invoices WHERE status IN ('pending', 'overdue'))`

func (r *repoPG) Counts(ctx context.Context) (*Counts, error) {
	var c Counts
	err := db.Conn(ctx, r.pool).QueryRow(ctx, countsSQL).Scan(
		&c.Patients, &c.ActivePatients, &c.ActiveServices, &c.ActivePrescriptions,
		&c.PendingInvoices, &c.OverdueInvoices, &c.Revenue, &c.Outstanding)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
