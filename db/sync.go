// ABOUTME: Database operations for the sync_state table
// ABOUTME: Tracks the last successful load and last error per backend resource
package db

import (
	"database/sql"
	"fmt"

	"github.com/harperreed/agentdash/models"
)

// UpdateSyncStatus sets the status of a resource. A nil errorMsg clears the
// previous error.
func UpdateSyncStatus(db *sql.DB, resource, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (resource, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(resource) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, resource, status, errorMsgVal)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

// MarkSynced records a successful sync now.
func MarkSynced(db *sql.DB, resource string) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (resource, last_sync_time, status, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(resource) DO UPDATE SET
			last_sync_time = CURRENT_TIMESTAMP,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, resource)
	if err != nil {
		return fmt.Errorf("failed to mark synced: %w", err)
	}
	return nil
}

const syncStateColumns = `resource, last_sync_time, status, error_message, updated_at`

func scanSyncState(s scanner) (*models.SyncState, error) {
	var state models.SyncState
	var lastSyncTime sql.NullTime
	var status sql.NullString
	var errorMessage sql.NullString

	if err := s.Scan(&state.Resource, &lastSyncTime, &status, &errorMessage, &state.UpdatedAt); err != nil {
		return nil, err
	}
	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	state.Status = status.String
	state.ErrorMessage = errorMessage.String
	return &state, nil
}

// GetSyncState returns the state of one resource, or nil if it never synced.
func GetSyncState(db *sql.DB, resource string) (*models.SyncState, error) {
	state, err := scanSyncState(db.QueryRow(`SELECT `+syncStateColumns+` FROM sync_state WHERE resource = ?`, resource))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}
	return state, nil
}

func GetAllSyncStates(db *sql.DB) ([]models.SyncState, error) {
	rows, err := db.Query(`SELECT ` + syncStateColumns + ` FROM sync_state ORDER BY resource`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []models.SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync states: %w", err)
	}
	return states, nil
}

// SyncRecorder stores syncer outcomes in sync_state.
type SyncRecorder struct {
	DB *sql.DB
}

func (r SyncRecorder) RecordSync(resource string, syncErr error) error {
	if syncErr == nil {
		return MarkSynced(r.DB, resource)
	}
	msg := syncErr.Error()
	return UpdateSyncStatus(r.DB, resource, models.SyncStatusError, &msg)
}
