// ABOUTME: Local history MCP tool handlers
// ABOUTME: Implements list_import_runs and get_sync_status over the SQLite history
package handlers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/agentdash/db"
	"github.com/harperreed/agentdash/models"
)

type HistoryHandlers struct {
	db *sql.DB
}

func NewHistoryHandlers(database *sql.DB) *HistoryHandlers {
	return &HistoryHandlers{db: database}
}

type ImportRunOutput struct {
	ID           string   `json:"id"`
	FileName     string   `json:"file_name"`
	TemplateID   string   `json:"template_id,omitempty"`
	TotalRows    int      `json:"total_rows"`
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

type ListImportRunsInput struct {
	Limit         int  `json:"limit,omitempty" jsonschema:"Maximum number of runs (default 10)"`
	IncludeErrors bool `json:"include_errors,omitempty" jsonschema:"Include per-row error messages"`
}

type ListImportRunsOutput struct {
	Runs []ImportRunOutput `json:"runs"`
}

func (h *HistoryHandlers) ListImportRuns(_ context.Context, request *mcp.CallToolRequest, input ListImportRunsInput) (*mcp.CallToolResult, ListImportRunsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}
	runs, err := db.ListImportRuns(h.db, limit)
	if err != nil {
		return nil, ListImportRunsOutput{}, fmt.Errorf("failed to list import runs: %w", err)
	}

	out := ListImportRunsOutput{Runs: make([]ImportRunOutput, 0, len(runs))}
	for _, run := range runs {
		if input.IncludeErrors && run.ErrorCount > 0 {
			run.Errors, err = db.GetImportErrors(h.db, run.ID)
			if err != nil {
				return nil, ListImportRunsOutput{}, fmt.Errorf("failed to get import errors: %w", err)
			}
		}
		out.Runs = append(out.Runs, importRunToOutput(run))
	}
	return nil, out, nil
}

type SyncStatusInput struct{}

type SyncStateOutput struct {
	Resource     string `json:"resource"`
	Status       string `json:"status"`
	LastSyncTime string `json:"last_sync_time,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type SyncStatusOutput struct {
	Resources []SyncStateOutput `json:"resources"`
}

func (h *HistoryHandlers) SyncStatus(_ context.Context, request *mcp.CallToolRequest, input SyncStatusInput) (*mcp.CallToolResult, SyncStatusOutput, error) {
	states, err := db.GetAllSyncStates(h.db)
	if err != nil {
		return nil, SyncStatusOutput{}, fmt.Errorf("failed to get sync states: %w", err)
	}
	out := SyncStatusOutput{Resources: make([]SyncStateOutput, 0, len(states))}
	for _, st := range states {
		o := SyncStateOutput{Resource: st.Resource, Status: st.Status, ErrorMessage: st.ErrorMessage}
		if st.LastSyncTime != nil {
			o.LastSyncTime = formatTime(*st.LastSyncTime)
		}
		out.Resources = append(out.Resources, o)
	}
	return nil, out, nil
}

func importRunToOutput(run models.ImportRun) ImportRunOutput {
	out := ImportRunOutput{
		ID:           run.ID,
		FileName:     run.FileName,
		TemplateID:   run.TemplateID,
		TotalRows:    run.TotalRows,
		SuccessCount: run.SuccessCount,
		ErrorCount:   run.ErrorCount,
		CreatedAt:    formatTime(run.CreatedAt),
	}
	for _, e := range run.Errors {
		out.Errors = append(out.Errors, fmt.Sprintf("row %d: %s", e.Row, e.Message))
	}
	return out
}
