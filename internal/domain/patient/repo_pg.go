package patient

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/db"
)

type patientRepoPG struct{ pool db.Querier }

func NewPatientRepoPG(pool db.Querier) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, first_name, last_name, date_of_birth, gender, phone, email,
	address, blood_group, active, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.Phone, &p.Email,
		&p.Address, &p.BloodGroup, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (first_name, last_name, date_of_birth, gender, phone, email,
			address, blood_group, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone, p.Email,
		p.Address, p.BloodGroup, p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return db.MapError(err)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err)
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Patient, error) {
	set := map[string]interface{}{"updated_at": sq.Expr("NOW()")}
	for k, v := range fields {
		set[k] = v
	}
	query, args, err := db.PSQL.Update("patients").SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + patientCols).
		ToSql()
	if err != nil {
		return nil, err
	}
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.MapError(err)
	}
	return p, nil
}

// Delete cascades to prescriptions. Patients with invoices are protected by
// the foreign key and yield db.ErrReference.
func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `DELETE FROM patients WHERE id = $1 RETURNING `+patientCols, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, db.MapError(err)
	}
	return p, nil
}

var patientSearchParams = map[string]db.FilterSpec{
	"name":        {Kind: db.FilterContains, Columns: []string{"first_name", "last_name", "first_name || ' ' || last_name"}},
	"phone":       db.Filter(db.FilterContains, "phone"),
	"email":       db.Filter(db.FilterExact, "email"),
	"gender":      db.Filter(db.FilterExact, "gender"),
	"blood_group": db.Filter(db.FilterExact, "blood_group"),
	"active":      db.Filter(db.FilterBool, "active"),
	"birthdate":   db.Filter(db.FilterDate, "date_of_birth"),
}

func (r *patientRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	where, err := db.ApplyFilters(params, patientSearchParams)
	if err != nil {
		return nil, 0, err
	}
	return db.SelectPage(ctx, r.conn(ctx), "patients", patientCols, where,
		"created_at DESC", limit, offset, scanPatient)
}
