//go:build integration

package activity

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db/testhelper"
)

func TestRepoPG_InsertAndList(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := testhelper.TxContext(t, pool)
	repo := NewRepoPG(pool)

	details := `{"description":"Created patient: Ada Lovelace"}`
	uid := "doc-1"
	first := &Entry{Action: ActionCreate, Details: &details, UserID: &uid, CreatedAt: time.Now().UTC().Add(-time.Minute)}
	second := &Entry{Action: ActionDelete, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))
	assert.NotZero(t, first.ID)

	items, total, err := repo.List(ctx, Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Nil(t, items[0].UserID)
	assert.Nil(t, items[0].Details)

	items, total, err = repo.List(ctx, Filter{UserID: "doc-1"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.NotNil(t, items[0].Details)
	assert.JSONEq(t, details, *items[0].Details)
}

func TestRecorder_WritesThroughToTable(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := testhelper.TxContext(t, pool)
	repo := NewRepoPG(pool)
	var buf bytes.Buffer
	rec := NewRecorder(repo, auth.ContextUserResolver{}, zerolog.New(&buf))

	id := uuid.New()
	rec.Log(auth.WithUser(ctx, "acct-9", []string{auth.RoleAccountant}), ActionUpdate,
		EntityDetails("invoice", id, "Updated invoice: INV-000123"))
	rec.Log(ctx, ActionCreate, nil)

	items, _, err := repo.List(ctx, Filter{Action: ActionUpdate}, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].UserID)
	assert.Equal(t, "acct-9", *items[0].UserID)
	d, err := items[0].DecodedDetails()
	require.NoError(t, err)
	assert.Equal(t, id.String(), d["entity_id"])

	items, _, err = repo.List(ctx, Filter{Action: ActionCreate}, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].UserID)
	assert.Empty(t, buf.String())
}
