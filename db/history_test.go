// ABOUTME: Tests for import run history and sync state persistence
// ABOUTME: Uses an in-memory database per test
package db

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/agentdash/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordAndListImports(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, RecordImport(db, models.ImportRun{
		ID: "run1", FileName: "a.csv", TotalRows: 2, SuccessCount: 2, CreatedAt: base,
	}))
	require.NoError(t, RecordImport(db, models.ImportRun{
		ID: "run2", FileName: "b.csv", TemplateID: "tmpl", TotalRows: 3, SuccessCount: 1, ErrorCount: 2,
		Errors:    []models.RowError{{Row: 4, Message: "price must be a number"}, {Row: 2, Message: "name is required"}},
		CreatedAt: base.Add(time.Hour),
	}))

	runs, err := ListImportRuns(db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run2", runs[0].ID)
	assert.Equal(t, "tmpl", runs[0].TemplateID)
	assert.Empty(t, runs[0].Errors)
	assert.Equal(t, "", runs[1].TemplateID)
	assert.True(t, runs[1].CreatedAt.Equal(base))

	run, err := GetImportRun(db, "run2")
	require.NoError(t, err)
	assert.Equal(t, 2, run.ErrorCount)
	assert.Equal(t, []models.RowError{{Row: 2, Message: "name is required"}, {Row: 4, Message: "price must be a number"}}, run.Errors)

	missing, err := GetImportRun(db, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecordImportDuplicateRollsBack(t *testing.T) {
	db := setupTestDB(t)
	run := models.ImportRun{ID: "dup", FileName: "a.csv", CreatedAt: time.Now().UTC()}
	require.NoError(t, RecordImport(db, run))

	run.Errors = []models.RowError{{Row: 1, Message: "x"}}
	assert.Error(t, RecordImport(db, run))

	errs, err := GetImportErrors(db, "dup")
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestSyncStateLifecycle(t *testing.T) {
	db := setupTestDB(t)

	state, err := GetSyncState(db, "catalog")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, UpdateSyncStatus(db, "catalog", models.SyncStatusSyncing, nil))
	state, err = GetSyncState(db, "catalog")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSyncing, state.Status)
	assert.Nil(t, state.LastSyncTime)

	rec := SyncRecorder{DB: db}
	require.NoError(t, rec.RecordSync("catalog", errors.New("GET catalog: 500")))
	state, err = GetSyncState(db, "catalog")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, state.Status)
	assert.Equal(t, "GET catalog: 500", state.ErrorMessage)

	require.NoError(t, rec.RecordSync("catalog", nil))
	require.NoError(t, rec.RecordSync("leads", nil))
	state, err = GetSyncState(db, "catalog")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusIdle, state.Status)
	assert.Empty(t, state.ErrorMessage)
	assert.NotNil(t, state.LastSyncTime)

	all, err := GetAllSyncStates(db)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "catalog", all[0].Resource)
	assert.Equal(t, "leads", all[1].Resource)
}
