// ABOUTME: Records bulk catalog import runs and their per-row errors
// ABOUTME: Backs the "history imports" and "history errors" commands
package db

import (
	"database/sql"
	"fmt"

	"github.com/harperreed/agentdash/models"
)

// RecordImport stores a run and its row errors in one transaction.
func RecordImport(db *sql.DB, run models.ImportRun) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var templateID sql.NullString
	if run.TemplateID != "" {
		templateID = sql.NullString{String: run.TemplateID, Valid: true}
	}

	_, err = tx.Exec(`
		INSERT INTO import_runs (id, file_name, template_id, total_rows, success_count, error_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.FileName, templateID, run.TotalRows, run.SuccessCount, run.ErrorCount, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}

	for _, rowErr := range run.Errors {
		if _, err = tx.Exec(`
			INSERT INTO import_row_errors (run_id, row_number, message) VALUES (?, ?, ?)
		`, run.ID, rowErr.Row, rowErr.Message); err != nil {
			return fmt.Errorf("failed to insert row error: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import run: %w", err)
	}
	return nil
}

// ListImportRuns returns the newest runs first, without their row errors.
func ListImportRuns(db *sql.DB, limit int) ([]models.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, file_name, template_id, total_rows, success_count, error_count, created_at
		FROM import_runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.ImportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.ImportRun, error) {
	var run models.ImportRun
	var templateID sql.NullString
	if err := s.Scan(&run.ID, &run.FileName, &templateID, &run.TotalRows, &run.SuccessCount, &run.ErrorCount, &run.CreatedAt); err != nil {
		return nil, err
	}
	run.TemplateID = templateID.String
	return &run, nil
}

// GetImportRun returns a run with its row errors, or nil when unknown.
func GetImportRun(db *sql.DB, id string) (*models.ImportRun, error) {
	run, err := scanRun(db.QueryRow(`
		SELECT id, file_name, template_id, total_rows, success_count, error_count, created_at
		FROM import_runs
		WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import run: %w", err)
	}

	run.Errors, err = GetImportErrors(db, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetImportErrors returns a run's row errors ordered by row.
func GetImportErrors(db *sql.DB, runID string) ([]models.RowError, error) {
	rows, err := db.Query(`
		SELECT row_number, message FROM import_row_errors
		WHERE run_id = ?
		ORDER BY row_number
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query row errors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.RowError
	for rows.Next() {
		var e models.RowError
		if err := rows.Scan(&e.Row, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan row error: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
