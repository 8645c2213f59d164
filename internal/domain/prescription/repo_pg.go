package prescription

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/db"
)

type prescriptionRepoPG struct{ pool db.Querier }

func NewPrescriptionRepoPG(pool db.Querier) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const rxCols = `id, patient_id, prescribed_by, medication_name, dosage, frequency,
	duration_days, instructions, active, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var rx Prescription
	err := row.Scan(&rx.ID, &rx.PatientID, &rx.PrescribedBy, &rx.MedicationName, &rx.Dosage, &rx.Frequency,
		&rx.DurationDays, &rx.Instructions, &rx.Active, &rx.CreatedAt, &rx.UpdatedAt)
	return &rx, err
}

func (r *prescriptionRepoPG) Create(ctx context.Context, rx *Prescription) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescriptions (patient_id, prescribed_by, medication_name, dosage, frequency,
			duration_days, instructions, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		rx.PatientID, rx.PrescribedBy, rx.MedicationName, rx.Dosage, rx.Frequency,
		rx.DurationDays, rx.Instructions, rx.Active,
	).Scan(&rx.ID, &rx.CreatedAt, &rx.UpdatedAt)
	return db.MapError(err)
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	rx, err := scanPrescription(r.conn(ctx).QueryRow(ctx, `SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err)
	}
	return rx, nil
}

func (r *prescriptionRepoPG) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Prescription, error) {
	set := map[string]interface{}{"updated_at": sq.Expr("NOW()")}
	for k, v := range fields {
		set[k] = v
	}
	query, args, err := db.PSQL.Update("prescriptions").SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + rxCols).
		ToSql()
	if err != nil {
		return nil, err
	}
	rx, err := scanPrescription(r.conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.MapError(err)
	}
	return rx, nil
}

func (r *prescriptionRepoPG) Delete(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	rx, err := scanPrescription(r.conn(ctx).QueryRow(ctx, `DELETE FROM prescriptions WHERE id = $1 RETURNING `+rxCols, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, db.MapError(err)
	}
	return rx, nil
}

var rxSearchParams = map[string]db.FilterSpec{
	"patient_id":    db.Filter(db.FilterUUID, "patient_id"),
	"prescribed_by": db.Filter(db.FilterExact, "prescribed_by"),
	"medication":    db.Filter(db.FilterContains, "medication_name"),
	"active":        db.Filter(db.FilterBool, "active"),
}

func (r *prescriptionRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Prescription, int, error) {
	where, err := db.ApplyFilters(params, rxSearchParams)
	if err != nil {
		return nil, 0, err
	}
	return db.SelectPage(ctx, r.conn(ctx), "prescriptions", rxCols, where,
		"created_at DESC", limit, offset, scanPrescription)
}
