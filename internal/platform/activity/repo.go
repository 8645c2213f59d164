package activity

import "context"

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Action string
	UserID string
}

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error)
}
