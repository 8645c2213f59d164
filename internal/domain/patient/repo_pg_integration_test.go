//go:build integration

package patient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/db/testhelper"
)

func TestPatientRepoPG_Lifecycle(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := testhelper.TxContext(t, pool)
	repo := NewPatientRepoPG(pool)

	dob := time.Date(1906, 12, 9, 0, 0, 0, 0, time.UTC)
	p := &Patient{FirstName: "Grace", LastName: "Hopper", DateOfBirth: &dob, Active: true}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", got.FullName())
	assert.True(t, dob.Equal(*got.DateOfBirth))

	items, total, err := repo.Search(ctx, map[string]string{"name": "grace hop"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)

	items, _, err = repo.Search(ctx, map[string]string{"birthdate": "le1900-01-01"}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, items)

	updated, err := repo.Update(ctx, p.ID, map[string]interface{}{"phone": "555-0100"})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", *updated.Phone)

	var invoiceID string
	require.NoError(t, db.Conn(ctx, pool).QueryRow(ctx,
		`INSERT INTO invoices (invoice_number, patient_id, amount) VALUES ('INV-999999', $1, 10) RETURNING id`,
		p.ID).Scan(&invoiceID))

	_, err = repo.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, db.ErrReference)
}

func TestPatientRepoPG_DeleteMissing(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := testhelper.TxContext(t, pool)
	repo := NewPatientRepoPG(pool)

	p := &Patient{FirstName: "Alan", LastName: "Turing", Active: true}
	require.NoError(t, repo.Create(ctx, p))

	deleted, err := repo.Delete(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)

	again, err := repo.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
}
