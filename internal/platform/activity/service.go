package activity

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListRecent returns the newest entries first.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*Entry, error) {
	items, _, err := s.repo.List(ctx, Filter{}, limit, 0)
	return items, err
}

func (s *Service) Search(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}
