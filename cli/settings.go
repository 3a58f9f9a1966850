// ABOUTME: Config CLI commands: show the effective settings and change one
// ABOUTME: Environment overrides apply on load but are never written back
package cli

import (
	"flag"
	"fmt"

	"github.com/harperreed/agentdash/config"
)

func ConfigShowCommand(app *App, args []string) error {
	path := app.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	app.printf("Config file: %s\n\n", path)

	values := app.Config.Values()
	w := app.table()
	for _, k := range config.Keys() {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", k, orDash(values[k]))
	}
	return w.Flush()
}

// ConfigSetCommand updates one key in the config file. It starts from the
// file alone so environment overrides do not leak into it.
func ConfigSetCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("config set", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: config set <key> <value>")
	}

	cfg, err := config.LoadFile(app.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Set(fs.Arg(0), fs.Arg(1)); err != nil {
		return err
	}
	if err := cfg.Save(app.ConfigPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	app.printf("✓ %s updated\n", fs.Arg(0))
	return nil
}
