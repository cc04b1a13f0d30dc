package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docflow/internal/model"
)

func newDoc(id, name string, uploadedAt time.Time) *model.Document {
	return &model.Document{
		ID:          id,
		Name:        name,
		StoragePath: "documents/" + id,
		SizeBytes:   100,
		ContentType: "application/pdf",
		UploadedAt:  uploadedAt,
		Status:      model.StatusReceived,
	}
}

func TestMemory_InsertGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	doc := newDoc("a", "bulletin.pdf", time.Now().UTC())
	require.NoError(t, m.Insert(ctx, doc))

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "bulletin.pdf", got.Name)

	// Mutating the returned snapshot must not affect the stored record.
	got.Status = model.StatusFailed
	again, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReceived, again.Status)

	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Update(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Insert(ctx, newDoc("a", "bulletin.pdf", time.Now().UTC())))

	t.Run("applies mutation", func(t *testing.T) {
		updated, err := m.Update(ctx, "a", func(d *model.Document) error {
			d.Status = model.StatusAnalyzing
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusAnalyzing, updated.Status)

		got, err := m.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, model.StatusAnalyzing, got.Status)
	})

	t.Run("failed mutation leaves record untouched", func(t *testing.T) {
		_, err := m.Update(ctx, "a", func(d *model.Document) error {
			d.Status = model.StatusFailed
			return errors.New("boom")
		})
		assert.Error(t, err)

		got, err := m.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, model.StatusAnalyzing, got.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := m.Update(ctx, "missing", func(*model.Document) error { return nil })
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemory_ListOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	base := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, m.Insert(ctx, newDoc("b", "older.pdf", base.Add(-time.Hour))))
	require.NoError(t, m.Insert(ctx, newDoc("c", "tie2.pdf", base)))
	require.NoError(t, m.Insert(ctx, newDoc("a", "tie1.pdf", base)))

	docs, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// uploaded_at desc, ties by id asc
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "c", docs[1].ID)
	assert.Equal(t, "b", docs[2].ID)
}

func TestMemory_Distributions(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Insert(ctx, newDoc("a", "bulletin.pdf", time.Now().UTC())))

	assert.ErrorIs(t, m.AddDistribution(ctx, "missing", model.Distribution{}), ErrNotFound)

	first := model.Distribution{Recipient: "ops@example.com", SentAt: time.Now().UTC(), Delivered: false, Detail: "smtp timeout"}
	second := model.Distribution{Recipient: "ops@example.com", SentAt: time.Now().UTC(), Delivered: true}
	require.NoError(t, m.AddDistribution(ctx, "a", first))
	require.NoError(t, m.AddDistribution(ctx, "a", second))

	hist, err := m.ListDistributions(ctx, "a")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.False(t, hist[0].Delivered)
	assert.True(t, hist[1].Delivered)
}
