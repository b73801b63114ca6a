package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

func newTestStore(t *testing.T) *SQLiteRunStore {
	t.Helper()
	store, err := NewSQLiteRunStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecord(id string, created time.Time) *core.RunRecord {
	completed := created.Add(time.Minute)
	return &core.RunRecord{
		RunID:    core.RunID(id),
		Ref:      core.PRRef{Owner: "acme", Repo: "widget", Number: 42},
		Status:   core.RunStatusCompleted,
		Degraded: true,
		Markdown: "## Findings\n",
		Report: &core.TerminalReport{
			RunID:    core.RunID(id),
			Ref:      core.PRRef{Owner: "acme", Repo: "widget", Number: 42},
			Degraded: true,
			Attempts: 3,
			Groups: []core.SeverityGroup{{
				Severity: core.SeverityHigh,
				Findings: []core.Finding{{
					ID: "f1", Kind: core.FindingMissingDoc, Severity: core.SeverityHigh,
					Title: "Timeout undocumented", TargetLocation: "README.md",
				}},
			}},
		},
		CreatedAt:   created,
		CompletedAt: &completed,
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("run-1", time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, rec.RunID, got.RunID)
	assert.Equal(t, rec.Ref, got.Ref)
	assert.Equal(t, core.RunStatusCompleted, got.Status)
	assert.True(t, got.Degraded)
	assert.Equal(t, rec.Markdown, got.Markdown)
	require.NotNil(t, got.Report)
	assert.Equal(t, 3, got.Report.Attempts)
	assert.Equal(t, 1, got.Report.TotalFindings())
	require.NotNil(t, got.CompletedAt)
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	require.Error(t, err)

	var domErr *core.DomainError
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, core.CodeRunNotFound, domErr.Code)
}

func TestStore_SaveIsUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("run-1", time.Now().UTC())
	rec.Status = core.RunStatusRunning
	rec.CompletedAt = nil
	rec.Report = nil
	require.NoError(t, store.Save(ctx, rec))

	rec = sampleRecord("run-1", rec.CreatedAt)
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, got.Status)
	assert.NotNil(t, got.Report)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		rec := sampleRecord(id, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Save(ctx, rec))
	}

	got, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.RunID("run-c"), got[0].RunID)
	assert.Equal(t, core.RunID("run-b"), got[1].RunID)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord("run-1", time.Now().UTC())))
	require.NoError(t, store.Delete(ctx, "run-1"))

	_, err := store.Get(ctx, "run-1")
	assert.Error(t, err)

	err = store.Delete(ctx, "run-1")
	require.Error(t, err)
	var domErr *core.DomainError
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, core.CodeRunNotFound, domErr.Code)
}

func TestStore_FailedRunWithoutReport(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &core.RunRecord{
		RunID:     "run-x",
		Ref:       core.PRRef{Owner: "acme", Repo: "widget", Number: 7},
		Status:    core.RunStatusFailed,
		Error:     "stage extractor: pull request not found",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, "run-x")
	require.NoError(t, err)
	assert.Nil(t, got.Report)
	assert.Nil(t, got.CompletedAt)
	assert.Contains(t, got.Error, "not found")
}
