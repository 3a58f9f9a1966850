// ABOUTME: CLI commands over the local sqlite history
// ABOUTME: Lists bulk import runs, their row errors, and per-resource sync state
package cli

import (
	"errors"
	"flag"
	"fmt"

	"github.com/harperreed/agentdash/db"
)

var errNoHistory = errors.New("local history database is not available")

func HistoryImportsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("history imports", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum runs")
	_ = fs.Parse(args)
	if app.DB == nil {
		return errNoHistory
	}

	runs, err := db.ListImportRuns(app.DB, *limit)
	if err != nil {
		return fmt.Errorf("failed to list imports: %w", err)
	}
	if len(runs) == 0 {
		app.printf("No imports recorded\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintln(w, "WHEN\tFILE\tROWS\tOK\tFAILED\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t--\t------\t--")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.FileName, r.TotalRows, r.SuccessCount, r.ErrorCount, r.ID)
	}
	return w.Flush()
}

func HistoryErrorsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("history errors", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: history errors <run-id>")
	}
	if app.DB == nil {
		return errNoHistory
	}

	run, err := db.GetImportRun(app.DB, fs.Arg(0))
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("import run %s not found", fs.Arg(0))
	}

	app.printf("%s: %d of %d rows imported\n", run.FileName, run.SuccessCount, run.TotalRows)
	if len(run.Errors) == 0 {
		app.printf("✓ No row errors\n")
		return nil
	}
	for _, e := range run.Errors {
		app.printf("  row %d: %s\n", e.Row, e.Message)
	}
	return nil
}

func HistorySyncCommand(app *App, args []string) error {
	if app.DB == nil {
		return errNoHistory
	}
	states, err := db.GetAllSyncStates(app.DB)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		app.printf("No syncs recorded\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintln(w, "RESOURCE\tLAST SYNC\tSTATUS\tERROR")
	_, _ = fmt.Fprintln(w, "--------\t---------\t------\t-----")
	for _, s := range states {
		last := "never"
		if s.LastSyncTime != nil {
			last = s.LastSyncTime.Local().Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Resource, last, s.Status, orDash(s.ErrorMessage))
	}
	return w.Flush()
}
