package medservice

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/db"
)

type medicalServiceRepoPG struct{ pool db.Querier }

func NewMedicalServiceRepoPG(pool db.Querier) MedicalServiceRepository {
	return &medicalServiceRepoPG{pool: pool}
}

func (r *medicalServiceRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const msCols = `id, name, description, category, price, duration_minutes, active, created_at, updated_at`

func scanMedicalService(row pgx.Row) (*MedicalService, error) {
	var ms MedicalService
	err := row.Scan(&ms.ID, &ms.Name, &ms.Description, &ms.Category, &ms.Price,
		&ms.DurationMinutes, &ms.Active, &ms.CreatedAt, &ms.UpdatedAt)
	return &ms, err
}

func (r *medicalServiceRepoPG) Create(ctx context.Context, ms *MedicalService) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_services (name, description, category, price, duration_minutes, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		ms.Name, ms.Description, ms.Category, ms.Price, ms.DurationMinutes, ms.Active,
	).Scan(&ms.ID, &ms.CreatedAt, &ms.UpdatedAt)
	return db.MapError(err)
}

func (r *medicalServiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalService, error) {
	ms, err := scanMedicalService(r.conn(ctx).QueryRow(ctx,
		`SELECT `+msCols+` FROM medical_services WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err)
	}
	return ms, nil
}

func (r *medicalServiceRepoPG) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*MedicalService, error) {
	set := map[string]interface{}{"updated_at": sq.Expr("NOW()")}
	for k, v := range fields {
		set[k] = v
	}
	query, args, err := db.PSQL.Update("medical_services").SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + msCols).
		ToSql()
	if err != nil {
		return nil, err
	}
	ms, err := scanMedicalService(r.conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.MapError(err)
	}
	return ms, nil
}

func (r *medicalServiceRepoPG) Delete(ctx context.Context, id uuid.UUID) (*MedicalService, error) {
	ms, err := scanMedicalService(r.conn(ctx).QueryRow(ctx,
		`DELETE FROM medical_services WHERE id = $1 RETURNING `+msCols, id))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, db.MapError(err)
	}
	return ms, nil
}

var msSearchParams = map[string]db.FilterSpec{
	"name":     db.Filter(db.FilterContains, "name"),
	"category": db.Filter(db.FilterExact, "category"),
	"active":   db.Filter(db.FilterBool, "active"),
}

func (r *medicalServiceRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*MedicalService, int, error) {
	where, err := db.ApplyFilters(params, msSearchParams)
	if err != nil {
		return nil, 0, err
	}
	return db.SelectPage(ctx, r.conn(ctx), "medical_services", msCols, where,
		"created_at DESC", limit, offset, scanMedicalService)
}
