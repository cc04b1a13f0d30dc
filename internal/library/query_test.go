package library

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docflow/internal/model"
	"docflow/internal/store"
)

// seedLibrary loads a small corpus modeled on a typical intake week:
// analyzed documents across departments plus one still analyzing and one
// failed upload.
func seedLibrary(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()

	base := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	docs := []*model.Document{
		{
			ID: "d1", Name: "Safety Bulletin - Emergency Procedures.pdf",
			UploadedAt: base, Status: model.StatusDistributed,
			Analysis: &model.DocumentAnalysis{
				Summary:     "Critical safety update regarding metro rail operations requiring immediate attention.",
				Urgency:     model.UrgencyHigh,
				Departments: []string{"Operations", "Safety"},
			},
		},
		{
			ID: "d2", Name: "Maintenance Schedule Update.pdf",
			UploadedAt: base.Add(-24 * time.Hour), Status: model.StatusAnalyzed,
			Analysis: &model.DocumentAnalysis{
				Summary:     "Updated rolling stock maintenance schedule affecting multiple stations.",
				Urgency:     model.UrgencyMedium,
				Departments: []string{"Engineering", "Operations"},
			},
		},
		{
			ID: "d3", Name: "Vendor Invoice - Station Equipment.pdf",
			UploadedAt: base.Add(-48 * time.Hour), Status: model.StatusAnalyzed,
			Analysis: &model.DocumentAnalysis{
				Summary:     "Invoice for new station equipment requiring approval and payment processing.",
				Urgency:     model.UrgencyLow,
				Departments: []string{"Finance", "Procurement"},
			},
		},
		{
			ID: "d4", Name: "HR Policy Update - Leave Guidelines.pdf",
			UploadedAt: base.Add(-72 * time.Hour), Status: model.StatusAnalyzing,
		},
		{
			ID: "d5", Name: "Engineering Drawing Revision.pdf",
			UploadedAt: base.Add(-96 * time.Hour), Status: model.StatusFailed,
			FailureReason: "engine timeout",
		},
	}
	for _, d := range docs {
		require.NoError(t, m.Insert(ctx, d))
	}
	return m
}

func ids(docs []model.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	engine := New(seedLibrary(t))

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "empty filter returns everything in store order",
			filter: Filter{},
			want:   []string{"d1", "d2", "d3", "d4", "d5"},
		},
		{
			name:   "search matches name case-insensitively",
			filter: Filter{SearchText: "INVOICE"},
			want:   []string{"d3"},
		},
		{
			name:   "search matches summary",
			filter: Filter{SearchText: "rolling stock"},
			want:   []string{"d2"},
		},
		{
			name:   "search matches unanalyzed documents by name only",
			filter: Filter{SearchText: "leave guidelines"},
			want:   []string{"d4"},
		},
		{
			name:   "urgency high",
			filter: Filter{Urgency: "High"},
			want:   []string{"d1"},
		},
		{
			name:   "urgency excludes unanalyzed documents",
			filter: Filter{Urgency: "low"},
			want:   []string{"d3"},
		},
		{
			name:   "department membership",
			filter: Filter{Department: "Operations"},
			want:   []string{"d1", "d2"},
		},
		{
			name:   "department excludes non-members",
			filter: Filter{Department: "Finance"},
			want:   []string{"d3"},
		},
		{
			name:   "conjunction of all constraints",
			filter: Filter{SearchText: "metro", Urgency: "high", Department: "Safety"},
			want:   []string{"d1"},
		},
		{
			name:   "conjunction with no intersection",
			filter: Filter{Urgency: "high", Department: "Finance"},
			want:   []string{},
		},
		{
			name:   "malformed urgency is treated as unconstrained",
			filter: Filter{Urgency: "urgent-ish"},
			want:   []string{"d1", "d2", "d3", "d4", "d5"},
		},
		{
			name:   "no match",
			filter: Filter{SearchText: "quarterly budget"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := engine.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(docs))
		})
	}
}

func TestQuery_Idempotent(t *testing.T) {
	ctx := context.Background()
	engine := New(seedLibrary(t))

	filter := Filter{Department: "Operations"}
	first, err := engine.Query(ctx, filter)
	require.NoError(t, err)
	second, err := engine.Query(ctx, filter)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDepartments(t *testing.T) {
	ctx := context.Background()
	engine := New(seedLibrary(t))

	depts, err := engine.Departments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Engineering", "Finance", "Operations", "Procurement", "Safety"}, depts)
}

func TestDepartments_ReflectsStoreState(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	engine := New(m)

	depts, err := engine.Departments(ctx)
	require.NoError(t, err)
	assert.Empty(t, depts)

	require.NoError(t, m.Insert(ctx, &model.Document{
		ID: "d1", Name: "a.pdf", UploadedAt: time.Now().UTC(), Status: model.StatusAnalyzed,
		Analysis: &model.DocumentAnalysis{Summary: "s", Urgency: model.UrgencyLow, Departments: []string{"Legal"}},
	}))

	depts, err = engine.Departments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Legal"}, depts)
}
