package dashboard

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/activity"
)

const recentActivityLimit = 10

type Service struct {
	repo     Repository
	activity *activity.Service
	log      zerolog.Logger
}

func NewService(repo Repository, feed *activity.Service, logger zerolog.Logger) *Service {
	return &Service{repo: repo, activity: feed, log: logger.With().Str("component", "dashboard").Logger()}
}

// Stats gathers the counts and the ten newest activity entries.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Error fetching dashboard counts")
		return nil, err
	}

	entries, err := s.activity.ListRecent(ctx, recentActivityLimit)
	if err != nil {
		s.log.Error().Err(err).Msg("Error fetching recent activity")
		return nil, err
	}

	stats := &Stats{Counts: *counts, RecentActivity: make([]activity.View, len(entries))}
	for i, e := range entries {
		stats.RecentActivity[i] = e.ToView()
	}
	return stats, nil
}
