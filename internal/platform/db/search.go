package db

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PSQL builds statements with $n placeholders.
var PSQL = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// FilterKind selects how a query parameter is matched against its columns.
type FilterKind int

const (
	FilterExact FilterKind = iota
	// FilterContains is a case-insensitive substring match. With several
	// columns any of them may match.
	FilterContains
	FilterBool
	FilterUUID
	// FilterDate accepts an optional ge/le/gt/lt prefix, e.g. "le2026-01-31".
	FilterDate
)

// FilterSpec maps a query parameter onto one or more columns.
type FilterSpec struct {
	Kind    FilterKind
	Columns []string
}

// Filter is shorthand for a single-column FilterSpec.
func Filter(kind FilterKind, column string) FilterSpec {
	return FilterSpec{Kind: kind, Columns: []string{column}}
}

// ApplyFilters turns request parameters into a WHERE clause. Unknown and
// empty parameters are ignored. Malformed values wrap ErrInvalid.
func ApplyFilters(params map[string]string, specs map[string]FilterSpec) (sq.And, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	where := sq.And{}
	for _, key := range keys {
		spec, ok := specs[key]
		raw := strings.TrimSpace(params[key])
		if !ok || raw == "" || len(spec.Columns) == 0 {
			continue
		}
		cond, err := spec.condition(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
		where = append(where, cond)
	}
	return where, nil
}

func (s FilterSpec) condition(raw string) (sq.Sqlizer, error) {
	col := s.Columns[0]
	switch s.Kind {
	case FilterContains:
		or := sq.Or{}
		for _, c := range s.Columns {
			or = append(or, sq.ILike{c: "%" + raw + "%"})
		}
		return or, nil
	case FilterBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		return sq.Eq{col: b}, nil
	case FilterUUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		return sq.Eq{col: id}, nil
	case FilterDate:
		op, value := "=", raw
		if len(raw) > 2 {
			switch raw[:2] {
			case "ge":
				op, value = ">=", raw[2:]
			case "le":
				op, value = "<=", raw[2:]
			case "gt":
				op, value = ">", raw[2:]
			case "lt":
				op, value = "<", raw[2:]
			case "eq":
				value = raw[2:]
			}
		}
		d, err := time.Parse(time.DateOnly, value)
		if err != nil {
			return nil, err
		}
		return sq.Expr(col+" "+op+" ?", d), nil
	default:
		return sq.Eq{col: raw}, nil
	}
}

// SelectPage runs a COUNT over where and then the page of rows from cols,
// ordered by orderBy.
func SelectPage[T any](ctx context.Context, q Querier, table, cols string, where sq.Sqlizer,
	orderBy string, limit, offset int, scan func(pgx.Row) (T, error)) ([]T, int, error) {
	countSQL, countArgs, err := PSQL.Select("COUNT(*)").From(table).Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL, dataArgs, err := PSQL.Select(cols).From(table).Where(where).
		OrderBy(orderBy).Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}
