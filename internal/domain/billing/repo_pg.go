package billing

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/db"
)

type invoiceRepoPG struct{ pool db.Querier }

func NewInvoiceRepoPG(pool db.Querier) InvoiceRepository {
	return &invoiceRepoPG{pool: pool}
}

func (r *invoiceRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const invoiceCols = `id, invoice_number, patient_id, amount, status, due_date, paid_at, notes, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.PatientID, &inv.Amount, &inv.Status,
		&inv.DueDate, &inv.PaidAt, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	return &inv, err
}

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO invoices (invoice_number, patient_id, amount, status, due_date, paid_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		inv.InvoiceNumber, inv.PatientID, inv.Amount, inv.Status, inv.DueDate, inv.PaidAt, inv.Notes,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	return db.MapError(err)
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err)
	}
	return inv, nil
}

func (r *invoiceRepoPG) InvoiceNumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE invoice_number = $1)`, number).Scan(&exists)
	return exists, err
}

func (r *invoiceRepoPG) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Invoice, error) {
	set := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		set[k] = v
	}
	set["updated_at"] = sq.Expr("NOW()")

	query, args, err := db.PSQL.Update("invoices").SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + invoiceCols).
		ToSql()
	if err != nil {
		return nil, err
	}
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.MapError(err)
	}
	return inv, nil
}

func (r *invoiceRepoPG) Delete(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx,
		`DELETE FROM invoices WHERE id = $1 RETURNING `+invoiceCols, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, db.MapError(err)
	}
	return inv, nil
}

var invoiceSearchParams = map[string]db.FilterSpec{
	"patient_id":     db.Filter(db.FilterUUID, "patient_id"),
	"status":         db.Filter(db.FilterExact, "status"),
	"invoice_number": db.Filter(db.FilterContains, "invoice_number"),
	"due_date":       db.Filter(db.FilterDate, "due_date"),
}

func (r *invoiceRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Invoice, int, error) {
	where, err := db.ApplyFilters(params, invoiceSearchParams)
	if err != nil {
		return nil, 0, err
	}
	return db.SelectPage(ctx, r.conn(ctx), "invoices", invoiceCols, where,
		"created_at DESC", limit, offset, scanInvoice)
}
