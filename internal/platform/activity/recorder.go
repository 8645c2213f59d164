package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
)

// Auditor records one activity entry per mutation. Implementations must not
// fail the caller: there is nothing to inspect on return.
type Auditor interface {
	Log(ctx context.Context, action string, details Details)
}

// Notifier receives every entry after it has been persisted. Notify must not
// block.
type Notifier interface {
	Notify(ctx context.Context, entry *Entry)
}

// Observer counts audit writes by outcome.
type Observer interface {
	ObserveAudit(stored bool)
}

// Recorder is the Auditor backed by the activity_logs table.
type Recorder struct {
	repo     Repository
	users    auth.UserResolver
	notifier Notifier
	observer Observer
	log      zerolog.Logger
	now      func() time.Time
}

func NewRecorder(repo Repository, users auth.UserResolver, logger zerolog.Logger) *Recorder {
	return &Recorder{
		repo:  repo,
		users: users,
		log:   logger.With().Str("component", "activity").Logger(),
		now:   time.Now,
	}
}

// WithNotifier attaches a live feed that is told about each stored entry.
func (r *Recorder) WithNotifier(n Notifier) *Recorder {
	r.notifier = n
	return r
}

func (r *Recorder) WithObserver(o Observer) *Recorder {
	r.observer = o
	return r
}

// Log persists an entry attributed to the current user. Failures at any step
// are logged as warnings and swallowed.
func (r *Recorder) Log(ctx context.Context, action string, details Details) {
	entry, err := r.record(ctx, action, details)
	if err != nil {
		r.log.Warn().Err(err).Str("action", action).Msg("Failed to log activity")
	}
	if r.observer != nil {
		r.observer.ObserveAudit(err == nil)
	}
	if err == nil && r.notifier != nil {
		r.notify(ctx, entry)
	}
}

func (r *Recorder) record(ctx context.Context, action string, details Details) (entry *Entry, err error) {
	defer func() {
		if p := recover(); p != nil {
			entry, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	userID, err := r.users.CurrentUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}

	entry = &Entry{Action: action, CreatedAt: r.now().UTC()}
	if userID != "" {
		entry.UserID = &userID
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return nil, fmt.Errorf("encode details: %w", err)
		}
		s := string(raw)
		entry.Details = &s
	}

	if err := r.repo.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert activity log: %w", err)
	}
	return entry, nil
}

// notify hands a stored entry to the live feed. The entry is already
// persisted, so a feed failure is reported on its own.
func (r *Recorder) notify(ctx context.Context, entry *Entry) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Warn().Str("action", entry.Action).Int64("id", entry.ID).
				Msgf("Failed to notify activity feed: %v", p)
		}
	}()
	r.notifier.Notify(ctx, entry)
}
