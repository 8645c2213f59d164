package activity

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/db"
)

type repoPG struct{ pool db.Querier }

func NewRepoPG(pool db.Querier) Repository {
	return &repoPG{pool: pool}
}

const entryCols = `id, action, details, user_id, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Action, &e.Details, &e.UserID, &e.CreatedAt)
	return &e, err
}

func (r *repoPG) Insert(ctx context.Context, e *Entry) error {
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO activity_logs (action, details, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		e.Action, e.Details, e.UserID, e.CreatedAt,
	).Scan(&e.ID)
}

func (f Filter) where() sq.And {
	where := sq.And{}
	if f.Action != "" {
		where = append(where, sq.Eq{"action": f.Action})
	}
	if f.UserID != "" {
		where = append(where, sq.Eq{"user_id": f.UserID})
	}
	return where
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	return db.SelectPage(ctx, db.Conn(ctx, r.pool), "activity_logs", entryCols, f.where(),
		"created_at DESC, id DESC", limit, offset, scanEntry)
}
