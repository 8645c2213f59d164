package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/hms/internal/platform/auth"
)

type fakeRepo struct {
	mu      sync.Mutex
	entries []*Entry
	err     error
	panic   bool
}

func (f *fakeRepo) Insert(_ context.Context, e *Entry) error {
	if f.panic {
		panic("driver exploded")
	}
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeRepo) List(_ context.Context, _ Filter, limit, offset int) ([]*Entry, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.entries, len(f.entries), nil
}

type fakeResolver struct {
	id  string
	err error
}

func (f fakeResolver) CurrentUserID(context.Context) (string, error) { return f.id, f.err }

func newTestRecorder(repo Repository, users auth.UserResolver) (*Recorder, *bytes.Buffer) {
	var buf bytes.Buffer
	r := NewRecorder(repo, users, zerolog.New(&buf))
	r.now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }
	return r, &buf
}

func warnings(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]interface{}
		require.NoError(t, dec.Decode(&line))
		if line["level"] == "warn" {
			out = append(out, line)
		}
	}
	return out
}

func TestRecorder_PersistsEntry(t *testing.T) {
	repo := &fakeRepo{}
	r, buf := newTestRecorder(repo, fakeResolver{id: "user-42"})
	id := uuid.New()

	r.Log(context.Background(), ActionCreate, EntityDetails("patient", id, "Created patient: Ada Lovelace"))

	require.Len(t, repo.entries, 1)
	e := repo.entries[0]
	assert.Equal(t, ActionCreate, e.Action)
	require.NotNil(t, e.UserID)
	assert.Equal(t, "user-42", *e.UserID)
	assert.Equal(t, time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), e.CreatedAt)

	d, err := e.DecodedDetails()
	require.NoError(t, err)
	assert.Equal(t, "patient", d["entity"])
	assert.Equal(t, id.String(), d["entity_id"])
	assert.Equal(t, "Created patient: Ada Lovelace", d["description"])
	assert.Empty(t, warnings(t, buf))
}

func TestRecorder_NoAuthenticatedUser(t *testing.T) {
	repo := &fakeRepo{}
	r, buf := newTestRecorder(repo, fakeResolver{})

	r.Log(context.Background(), ActionDelete, Details{"description": "Deleted service: MRI"})

	require.Len(t, repo.entries, 1)
	assert.Nil(t, repo.entries[0].UserID)
	assert.Empty(t, warnings(t, buf))
}

func TestRecorder_NilDetailsStoredAsNull(t *testing.T) {
	repo := &fakeRepo{}
	r, _ := newTestRecorder(repo, fakeResolver{id: "u"})

	r.Log(context.Background(), "login", nil)

	require.Len(t, repo.entries, 1)
	assert.Nil(t, repo.entries[0].Details)
}

func TestRecorder_SwallowsFailures(t *testing.T) {
	tests := []struct {
		name    string
		repo    *fakeRepo
		users   auth.UserResolver
		details Details
	}{
		{"insert rejected", &fakeRepo{err: errors.New("permission denied for table activity_logs")}, fakeResolver{id: "u"}, nil},
		{"resolver error", &fakeRepo{}, fakeResolver{err: errors.New("session expired")}, nil},
		{"unencodable details", &fakeRepo{}, fakeResolver{id: "u"}, Details{"amount": math.Inf(1)}},
		{"insert panics", &fakeRepo{panic: true}, fakeResolver{id: "u"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, buf := newTestRecorder(tt.repo, tt.users)

			assert.NotPanics(t, func() {
				r.Log(context.Background(), ActionUpdate, tt.details)
			})

			assert.Empty(t, tt.repo.entries)
			w := warnings(t, buf)
			require.Len(t, w, 1)
			assert.Equal(t, ActionUpdate, w[0]["action"])
			assert.NotEmpty(t, w[0]["error"])
		})
	}
}

type fakeNotifier struct {
	entries []*Entry
}

func (f *fakeNotifier) Notify(_ context.Context, e *Entry) { f.entries = append(f.entries, e) }

func TestRecorder_NotifiesAfterInsert(t *testing.T) {
	repo := &fakeRepo{}
	feed := &fakeNotifier{}
	r, _ := newTestRecorder(repo, fakeResolver{id: "u"})
	r.WithNotifier(feed)

	r.Log(context.Background(), ActionCreate, Details{"entity": "invoice"})

	require.Len(t, feed.entries, 1)
	assert.Equal(t, int64(1), feed.entries[0].ID)
	assert.Same(t, repo.entries[0], feed.entries[0])
}

func TestRecorder_DoesNotNotifyFailedInsert(t *testing.T) {
	feed := &fakeNotifier{}
	r, _ := newTestRecorder(&fakeRepo{err: errors.New("disk full")}, fakeResolver{id: "u"})
	r.WithNotifier(feed)

	r.Log(context.Background(), ActionDelete, nil)

	assert.Empty(t, feed.entries)
}

type countingObserver struct{ stored, failed int }

func (o *countingObserver) ObserveAudit(stored bool) {
	if stored {
		o.stored++
	} else {
		o.failed++
	}
}

func TestRecorder_ObservesOutcome(t *testing.T) {
	obs := &countingObserver{}
	ok, _ := newTestRecorder(&fakeRepo{}, fakeResolver{id: "u"})
	ok.WithObserver(obs)
	failing, _ := newTestRecorder(&fakeRepo{err: errors.New("disk full")}, fakeResolver{id: "u"})
	failing.WithObserver(obs)

	ok.Log(context.Background(), ActionCreate, nil)
	failing.Log(context.Background(), ActionCreate, nil)

	assert.Equal(t, 1, obs.stored)
	assert.Equal(t, 1, obs.failed)
}

func TestContextUserResolverIntegration(t *testing.T) {
	repo := &fakeRepo{}
	r, _ := newTestRecorder(repo, auth.ContextUserResolver{})
	ctx := auth.WithUser(context.Background(), "nurse-1", []string{auth.RoleNurse})

	r.Log(ctx, ActionUpdate, nil)

	require.Len(t, repo.entries, 1)
	require.NotNil(t, repo.entries[0].UserID)
	assert.Equal(t, "nurse-1", *repo.entries[0].UserID)
}

func TestEntry_ToView(t *testing.T) {
	good := `{"description":"Updated patient: ID: 1"}`
	bad := `{not json`

	v := (&Entry{ID: 1, Action: ActionUpdate, Details: &good}).ToView()
	assert.Equal(t, "Updated patient: ID: 1", v.Details["description"])

	v = (&Entry{ID: 2, Action: ActionUpdate, Details: &bad}).ToView()
	assert.Equal(t, bad, v.Details["raw"])

	v = (&Entry{ID: 3, Action: ActionDelete}).ToView()
	assert.Nil(t, v.Details)
}

type panickingNotifier struct{}

func (panickingNotifier) Notify(context.Context, *Entry) { panic("feed down") }

func TestRecorder_FeedPanicKeepsStoredOutcome(t *testing.T) {
	repo := &fakeRepo{}
	obs := &countingObserver{}
	r, buf := newTestRecorder(repo, fakeResolver{id: "u"})
	r.WithNotifier(panickingNotifier{}).WithObserver(obs)

	assert.NotPanics(t, func() {
		r.Log(context.Background(), ActionCreate, Details{"entity": "patient"})
	})

	require.Len(t, repo.entries, 1)
	assert.Equal(t, 1, obs.stored)
	assert.Equal(t, 0, obs.failed)
	w := warnings(t, buf)
	require.Len(t, w, 1)
	assert.Equal(t, "Failed to notify activity feed: feed down", w[0]["message"])
	assert.Equal(t, ActionCreate, w[0]["action"])
}
