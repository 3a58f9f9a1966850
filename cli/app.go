// ABOUTME: Shared wiring for CLI commands: config, syncer, history database and IO
// ABOUTME: Commands take an *App plus their own args and print human-friendly output
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/harperreed/agentdash/config"
	"github.com/harperreed/agentdash/confirm"
	"github.com/harperreed/agentdash/store"
	"github.com/harperreed/agentdash/syncer"
)

// ErrNotSignedIn is returned by commands that need a session.
var ErrNotSignedIn = errors.New("not signed in; run `agentdash auth login` first")

const defaultTimeout = 30 * time.Second

type App struct {
	Config     *config.Config
	ConfigPath string
	Syncer     *syncer.Syncer
	// DB is the local import/sync history. It may be nil.
	DB  *sql.DB
	KV  store.KV
	Log *log.Logger

	Out     io.Writer
	In      io.Reader
	Version string

	reader *bufio.Reader
}

func (a *App) stores() *store.Stores {
	return a.Syncer.Stores()
}

func (a *App) ctx() (context.Context, context.CancelFunc) {
	timeout := defaultTimeout
	if a.Config != nil && a.Config.RequestTimeout() > 0 {
		timeout = a.Config.RequestTimeout()
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.Out, format, args...)
}

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
}

func (a *App) requireAuth() error {
	auth := a.stores().Auth
	if !auth.IsAuthenticated() {
		return ErrNotSignedIn
	}
	if auth.Expired(time.Now()) {
		return fmt.Errorf("session expired; run `agentdash auth login` again")
	}
	return nil
}

func (a *App) readLine() (string, error) {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.In)
	}
	line, err := a.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt asks for a value on the input stream.
func (a *App) prompt(label string) (string, error) {
	a.printf("%s: ", label)
	line, err := a.readLine()
	return strings.TrimSpace(line), err
}

// promptPassword reads without echo when attached to a terminal.
func (a *App) promptPassword(label string) (string, error) {
	a.printf("%s: ", label)
	if f, ok := a.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		a.printf("\n")
		return string(pw), err
	}
	return a.readLine()
}

// confirmDelete asks for a second Enter within the confirmation window.
// Any other input, or a late Enter, cancels.
func (a *App) confirmDelete(what, id string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	c := confirm.New(confirm.DefaultWindow)
	c.Click(id)
	a.printf("Press Enter within %s to delete %s (anything else cancels): ", c.Window(), what)

	line, err := a.readLine()
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(line) != "" {
		a.printf("Cancelled\n")
		return false, nil
	}
	if !c.Click(id) {
		a.printf("Confirmation window expired, nothing deleted\n")
		return false, nil
	}
	return true, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// pairs splits key=value entries.
func (m multiFlag) pairs() (map[string]string, error) {
	out := make(map[string]string, len(m))
	for _, kv := range m {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", kv)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}
