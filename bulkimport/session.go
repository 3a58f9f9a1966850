// ABOUTME: Upload -> Map -> Preview -> Result session for bulk catalog import
// ABOUTME: Mapping gates the preview step; submit reports per-row outcomes without rollback
package bulkimport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/wizard"
)

type Step int

const (
	StepUpload Step = iota + 1
	StepMap
	StepPreview
	StepResult
)

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "Upload"
	case StepMap:
		return "Map"
	case StepPreview:
		return "Preview"
	case StepResult:
		return "Result"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// ErrNotReady is returned by Submit outside the preview step.
var ErrNotReady = errors.New("import is not ready to submit")

// Uploader sends a mapped CSV to the backend.
type Uploader interface {
	BulkUpload(ctx context.Context, req models.BulkUploadRequest) (*models.BulkUploadResult, error)
}

// State is the data carried between steps.
type State struct {
	Template *models.CatalogTemplate
	Fields   []Field
	Sheet    *Sheet
	Mapping  Mapping
	Result   *models.BulkUploadResult
}

// MappingErrKey is the error key for an unmapped required field.
func MappingErrKey(fieldKey string) string {
	return "mapping." + fieldKey
}

func validateUpload(s State) wizard.Errors {
	errs := wizard.Errors{}
	if s.Sheet == nil {
		errs.Add("file", "Choose a CSV file")
	} else if len(s.Sheet.Rows) == 0 {
		errs.Add("file", "The file has no data rows")
	}
	return errs
}

func validateMapping(s State) wizard.Errors {
	errs := wizard.Errors{}
	if s.Sheet == nil {
		errs.Add("file", "Choose a CSV file")
		return errs
	}
	for _, f := range s.Mapping.Missing(s.Fields, s.Sheet.Headers) {
		errs.Add(MappingErrKey(f.Key), fmt.Sprintf("%s must be mapped to a column", f.Label))
	}
	return errs
}

type Session struct {
	state State
	wiz   *wizard.Wizard[State]
	runID string
	at    time.Time
}

// NewSession starts an import, optionally filling template custom fields.
func NewSession(tmpl *models.CatalogTemplate) *Session {
	s := &Session{state: State{Template: tmpl, Fields: FieldsFor(tmpl), Mapping: Mapping{}}}
	s.wiz = wizard.New(&s.state,
		wizard.Step[State]{Name: StepUpload.String(), Validate: validateUpload},
		wizard.Step[State]{Name: StepMap.String(), Validate: validateMapping},
		wizard.Step[State]{Name: StepPreview.String()},
		wizard.Step[State]{Name: StepResult.String()},
	)
	return s
}

func (s *Session) Step() Step {
	return Step(s.wiz.Step())
}

func (s *Session) Errors() wizard.Errors {
	return s.wiz.Errors()
}

func (s *Session) Fields() []Field {
	return s.state.Fields
}

func (s *Session) Sheet() *Sheet {
	return s.state.Sheet
}

func (s *Session) Mapping() Mapping {
	return s.state.Mapping
}

func (s *Session) Result() *models.BulkUploadResult {
	return s.state.Result
}

// Load parses a file and auto-maps its headers. Only valid on the upload step.
func (s *Session) Load(name string, data []byte) error {
	if s.Step() != StepUpload {
		return fmt.Errorf("load file: session is at %s", s.Step())
	}
	sheet, err := ParseCSV(name, data)
	if err != nil {
		return err
	}
	s.state.Sheet = sheet
	s.state.Mapping = AutoMap(sheet.Headers, s.state.Fields)
	return nil
}

// SetMapping points a field at a header. An empty header unmaps the field.
func (s *Session) SetMapping(fieldKey, header string) error {
	if s.state.Sheet == nil {
		return fmt.Errorf("set mapping: no file loaded")
	}
	known := false
	for _, f := range s.state.Fields {
		if f.Key == fieldKey {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("set mapping: unknown field %q", fieldKey)
	}
	if header == "" {
		delete(s.state.Mapping, fieldKey)
		return nil
	}
	for _, h := range s.state.Sheet.Headers {
		if h == header {
			s.state.Mapping[fieldKey] = header
			return nil
		}
	}
	return fmt.Errorf("set mapping: no column named %q", header)
}

// Next advances when the current step validates. The result step is only
// reached through Submit.
func (s *Session) Next() bool {
	if s.Step() >= StepPreview {
		return false
	}
	return s.wiz.Next()
}

// Back steps backwards. Leaving the result step is not possible; use Reset.
func (s *Session) Back() {
	if s.Step() == StepResult {
		return
	}
	s.wiz.Back()
}

// Preview returns up to n mapped rows.
func (s *Session) Preview(n int) []map[string]string {
	if s.state.Sheet == nil {
		return nil
	}
	rows := s.state.Sheet.Rows
	if n > 0 && n < len(rows) {
		rows = rows[:n]
	}
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.state.Mapping.Apply(s.state.Sheet.Headers, row))
	}
	return out
}

// Submit uploads the file with its mapping and moves to the result step.
// A failed call leaves the session on the preview step.
func (s *Session) Submit(ctx context.Context, up Uploader) (*models.BulkUploadResult, error) {
	if s.Step() != StepPreview {
		return nil, ErrNotReady
	}
	if errs := validateMapping(s.state); len(errs) > 0 {
		return nil, errs
	}

	req := models.BulkUploadRequest{
		FileName: s.state.Sheet.FileName,
		Content:  s.state.Sheet.Raw,
		Mapping:  s.state.Mapping.Compact(),
	}
	if s.state.Template != nil {
		req.TemplateID = s.state.Template.ID
	}

	result, err := up.BulkUpload(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bulk upload: %w", err)
	}

	s.state.Result = result
	s.runID = ulid.Make().String()
	s.at = time.Now().UTC()
	s.wiz.Next()
	return result, nil
}

// Run describes the submitted import for the local history.
func (s *Session) Run() (models.ImportRun, bool) {
	if s.state.Result == nil || s.state.Sheet == nil {
		return models.ImportRun{}, false
	}
	run := models.ImportRun{
		ID:           s.runID,
		FileName:     s.state.Sheet.FileName,
		TotalRows:    len(s.state.Sheet.Rows),
		SuccessCount: s.state.Result.SuccessCount,
		ErrorCount:   s.state.Result.ErrorCount,
		Errors:       s.state.Result.Errors,
		CreatedAt:    s.at,
	}
	if s.state.Template != nil {
		run.TemplateID = s.state.Template.ID
	}
	return run, true
}

// Reset starts over with the same template.
func (s *Session) Reset() {
	s.state.Sheet = nil
	s.state.Mapping = Mapping{}
	s.state.Result = nil
	s.runID = ""
	s.wiz.Reset()
}
