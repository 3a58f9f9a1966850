// ABOUTME: CLI commands for the Charm KV state backend
// ABOUTME: Link, status, manual sync, auto-sync toggle, wipe and local-to-charm copy
package charm

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/harperreed/agentdash/store"
)

// SyncLinkCommand links this device. Charm authenticates with the device's SSH key.
func SyncLinkCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync link", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := c.Config()
	fmt.Fprintf(out, "Linking to Charm Cloud (%s)...\n", cfg.Host)
	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	if id, err := c.ID(); err != nil {
		fmt.Fprintln(out, "✓ Device linked (ID unavailable)")
	} else {
		fmt.Fprintf(out, "✓ Linked to account: %s\n", id)
	}
	fmt.Fprintf(out, "✓ Auto-sync: %v\n", cfg.AutoSync)
	return nil
}

// SyncStatusCommand prints the backend settings and which persisted stores exist.
func SyncStatusCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := c.Config()
	fmt.Fprintln(out, "Charm Sync Status")
	fmt.Fprintln(out, "─────────────────")
	fmt.Fprintf(out, "Server:    %s\n", cfg.Host)
	fmt.Fprintf(out, "Auto-sync: %v\n", cfg.AutoSync)

	if id, err := c.ID(); err != nil {
		fmt.Fprintln(out, "Status:    Not connected")
	} else {
		fmt.Fprintf(out, "Status:    Connected as %s\n", id)
	}

	fmt.Fprintln(out, "\nPersisted stores:")
	for _, key := range store.Keys {
		_, err := c.Get(key)
		switch {
		case err == nil:
			fmt.Fprintf(out, "  ✓ %s\n", key)
		case errors.Is(err, store.ErrNotFound):
			fmt.Fprintf(out, "  - %s\n", key)
		default:
			fmt.Fprintf(out, "  ✗ %s: %v\n", key, err)
		}
	}
	return nil
}

func SyncNowCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync now", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Fprintln(out, "✓ Synced")
	return nil
}

// SyncAutoCommand toggles auto-sync in the saved charm settings.
func SyncAutoCommand(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync auto", flag.ContinueOnError)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *enable == *disable {
		return fmt.Errorf("usage: agentdash sync auto --enable|--disable")
	}

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.AutoSync = *enable
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(out, "✓ Auto-sync %s\n", map[bool]string{true: "enabled", false: "disabled"}[*enable])
	return nil
}

// SyncWipeCommand deletes every persisted store from the charm backend.
func SyncWipeCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync wipe", flag.ContinueOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*confirm {
		fmt.Fprintln(out, "WARNING: This will delete all persisted agentdash state!")
		fmt.Fprintln(out, "To confirm, run:\n  agentdash sync wipe --confirm")
		return nil
	}
	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}
	fmt.Fprintln(out, "✓ All persisted state wiped")
	return nil
}

// SyncPushCommand copies persisted stores from another backend, usually the
// local badger directory, into charm. Existing charm keys are overwritten.
func SyncPushCommand(c *Client, from store.KV, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync push", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	copied, err := Copy(from, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Copied %d stores to charm\n", copied)
	return nil
}

// Copy moves every known store key from src to dst, skipping missing keys.
func Copy(src, dst store.KV) (int, error) {
	copied := 0
	for _, key := range store.Keys {
		v, err := src.Get(key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return copied, fmt.Errorf("read %s: %w", key, err)
		}
		if err := dst.Set(key, v); err != nil {
			return copied, fmt.Errorf("write %s: %w", key, err)
		}
		copied++
	}
	return copied, nil
}
