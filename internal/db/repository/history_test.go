package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "ontomaint/internal/db"
	"ontomaint/internal/domain"
)

func setupHistoryRepo(t *testing.T) *HistoryRepo {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	return NewHistoryRepo(writeDB, readDB)
}

func strPtr(s string) *string { return &s }

func entry(source, status string, at time.Time) *domain.HistoryEntry {
	return &domain.HistoryEntry{
		ID:         uuid.New().String(),
		Source:     source,
		Query:      "SELECT ?x WHERE { ?x a <http://example.org/ontomaint#ErrorContext> }",
		Status:     status,
		RowCount:   3,
		DurationMs: 12,
		CreatedAt:  at,
	}
}

func TestHistoryRepo_InsertAndGet(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	e := entry(domain.SourceConsole, domain.StatusError, time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC))
	e.Template = strPtr("impact")
	e.ErrorMessage = strPtr("HTTP 400: parse error")
	require.NoError(t, repo.Insert(ctx, e))

	got, err := repo.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Source, got.Source)
	assert.Equal(t, e.Query, got.Query)
	assert.Equal(t, "impact", *got.Template)
	assert.Equal(t, "HTTP 400: parse error", *got.ErrorMessage)
	assert.Equal(t, int64(3), got.RowCount)
	assert.Equal(t, int64(12), got.DurationMs)
	assert.True(t, e.CreatedAt.Equal(got.CreatedAt))
}

func TestHistoryRepo_NullableFields(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	e := entry(domain.SourceCLI, domain.StatusOK, time.Now())
	require.NoError(t, repo.Insert(ctx, e))

	got, err := repo.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Template)
	assert.Nil(t, got.ErrorMessage)
}

func TestHistoryRepo_GetMissing(t *testing.T) {
	repo := setupHistoryRepo(t)

	_, err := repo.Get(context.Background(), "nope")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestHistoryRepo_InsertValidation(t *testing.T) {
	repo := setupHistoryRepo(t)

	err := repo.Insert(context.Background(), &domain.HistoryEntry{Source: domain.SourceCLI, Status: domain.StatusOK})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestHistoryRepo_InvalidStatusRejected(t *testing.T) {
	repo := setupHistoryRepo(t)

	err := repo.Insert(context.Background(), entry(domain.SourceCLI, "MAYBE", time.Now()))
	require.Error(t, err)
}

func TestHistoryRepo_List(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seed := []struct {
		source, status string
	}{
		{domain.SourceCLI, domain.StatusOK},
		{domain.SourceCLI, domain.StatusEmpty},
		{domain.SourceConsole, domain.StatusError},
		{domain.SourceSchedule, domain.StatusOK},
		{domain.SourceDashboard, domain.StatusOK},
	}
	for i, s := range seed {
		require.NoError(t, repo.Insert(ctx, entry(s.source, s.status, base.Add(time.Duration(i)*time.Minute))))
	}

	tests := []struct {
		name       string
		filter     domain.HistoryFilter
		wantTotal  int64
		wantLen    int
		wantSource string
	}{
		{name: "all_newest_first", filter: domain.HistoryFilter{}, wantTotal: 5, wantLen: 5, wantSource: domain.SourceDashboard},
		{name: "by_source", filter: domain.HistoryFilter{Source: strPtr(domain.SourceCLI)}, wantTotal: 2, wantLen: 2, wantSource: domain.SourceCLI},
		{name: "by_status", filter: domain.HistoryFilter{Status: strPtr(domain.StatusOK)}, wantTotal: 3, wantLen: 3, wantSource: domain.SourceDashboard},
		{name: "by_source_and_status", filter: domain.HistoryFilter{Source: strPtr(domain.SourceCLI), Status: strPtr(domain.StatusEmpty)}, wantTotal: 1, wantLen: 1, wantSource: domain.SourceCLI},
		{name: "no_match", filter: domain.HistoryFilter{Source: strPtr("nobody")}, wantTotal: 0, wantLen: 0},
		{name: "paged", filter: domain.HistoryFilter{Page: domain.PageRequest{MaxResults: 2, PageToken: domain.EncodePageToken(2)}}, wantTotal: 5, wantLen: 2, wantSource: domain.SourceConsole},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, total, err := repo.List(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.wantTotal, total)
			require.Len(t, got, tc.wantLen)
			if tc.wantLen > 0 {
				assert.Equal(t, tc.wantSource, got[0].Source, fmt.Sprintf("%+v", got[0]))
			}
			for i := 1; i < len(got); i++ {
				assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt), "entries must be newest first")
			}
		})
	}
}
