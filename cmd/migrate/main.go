// ABOUTME: Migration utility that rewrites persisted store blobs at their current schema version
// ABOUTME: Provides dry-run and backup capabilities against the local or charm state backend

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/agentdash/charm"
	"github.com/harperreed/agentdash/config"
	"github.com/harperreed/agentdash/store"
)

type closableKV interface {
	store.KV
	Close() error
}

func main() {
	configPath := flag.String("config", "", "Config file (default: XDG config dir)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Write a JSON backup of every blob before migrating")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "migrate"})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}

	kv, err := openKV(cfg)
	if err != nil {
		logger.Fatal("failed to open state", "backend", cfg.StateBackend, "err", err)
	}
	defer func() { _ = kv.Close() }()

	if err := migrate(logger, kv, cfg, *dryRun, *backup); err != nil {
		logger.Fatal("migration failed", "err", err)
	}
	logger.Info("migration completed successfully")
}

func openKV(cfg *config.Config) (closableKV, error) {
	if cfg.StateBackend == config.BackendCharm {
		charmCfg, err := charm.LoadConfig()
		if err != nil {
			return nil, err
		}
		return charm.Open(charmCfg)
	}
	return store.OpenBadger(cfg.StateDir)
}

func migrate(logger *log.Logger, kv store.KV, cfg *config.Config, dryRun, createBackup bool) error {
	blobs, err := readBlobs(kv)
	if err != nil {
		return err
	}
	logger.Info("persisted stores found", "count", len(blobs), "backend", cfg.StateBackend)
	if len(blobs) == 0 {
		return nil
	}

	if dryRun {
		scratch := memKV(blobs)
		migrated, err := store.MigrateAll(scratch)
		if err != nil {
			return err
		}
		report(logger, migrated, "[DRY RUN] would migrate")
		return nil
	}

	if createBackup {
		backupPath := fmt.Sprintf("%s.backup.%s.json", cfg.StateDir, time.Now().Format("20060102-150405"))
		data, err := json.MarshalIndent(blobs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode backup: %w", err)
		}
		if err := os.WriteFile(backupPath, data, 0600); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		logger.Info("backup created", "path", backupPath)
	}

	migrated, err := store.MigrateAll(kv)
	if err != nil {
		return err
	}
	report(logger, migrated, "migrated")
	return nil
}

func readBlobs(kv store.KV) (map[string]json.RawMessage, error) {
	blobs := make(map[string]json.RawMessage)
	for _, key := range store.Keys {
		data, err := kv.Get(key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		blobs[key] = data
	}
	return blobs, nil
}

func report(logger *log.Logger, migrated map[string]int, verb string) {
	if len(migrated) == 0 {
		logger.Info("all stores already at their current version")
		return
	}
	keys := make([]string, 0, len(migrated))
	for k := range migrated {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		logger.Info(verb, "store", k, "from_version", migrated[k])
	}
}

// memKV lets a dry run migrate copies of the blobs.
type memKV map[string]json.RawMessage

func (m memKV) Get(key string) ([]byte, error) {
	v, ok := m[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (m memKV) Set(key string, value []byte) error {
	m[key] = value
	return nil
}

func (m memKV) Delete(key string) error {
	delete(m, key)
	return nil
}
