// Package backup periodically archives a snapshot of every store and
// restores the newest archive at boot. Archives are zstd-compressed JSON
// with a checksummed trailer, written atomically, so a torn write is
// detected and skipped rather than restored.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/koradi/koradi-admin/internal/store"
	"github.com/koradi/koradi-admin/internal/telemetry"
)

// writeRetryTime is the total budget for retrying one archive write.
const writeRetryTime = 30 * time.Second

// Config configures the backup runner.
type Config struct {
	// Dir is where archives are written. Empty disables backups entirely.
	Dir string

	// Interval is the time between runs. Zero or negative disables the
	// periodic runner; RestoreLatest still works.
	Interval time.Duration

	// Retain is how many archives to keep, newest first. Zero or negative
	// keeps everything.
	Retain int
}

// Runner owns the periodic backup loop and boot-time restore.
type Runner struct {
	cfg    Config
	stores *store.Stores
}

func NewRunner(stores *store.Stores, cfg Config) *Runner {
	return &Runner{cfg: cfg, stores: stores}
}

// Name identifies the runner in supervisor logs.
func (r *Runner) Name() string { return "backup" }

// Run takes one backup per interval until the context ends. A failed run is
// logged and counted, never fatal: losing a backup beats losing the server.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.Dir == "" || r.cfg.Interval <= 0 {
		log.Info().Msg("Backups disabled")
		return nil
	}
	if err := os.MkdirAll(r.cfg.Dir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", r.cfg.Dir).Msg("Backup directory unavailable, backups disabled")
		return nil
	}

	log.Info().
		Str("dir", r.cfg.Dir).
		Dur("interval", r.cfg.Interval).
		Int("retain", r.cfg.Retain).
		Msg("Backup runner started")

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				telemetry.GetMetrics().BackupErrorsTotal.Add(ctx, 1)
				log.Error().Err(err).Msg("Backup failed")
			}
		}
	}
}

// runOnce snapshots the stores and writes one archive, retrying the write
// with backoff before giving up.
func (r *Runner) runOnce(ctx context.Context) error {
	started := time.Now()

	snap, err := store.TakeSnapshot(ctx, r.stores)
	if err != nil {
		return err
	}

	path := filepath.Join(r.cfg.Dir, archiveName(snap.TakenAt))

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond
	exp.MaxInterval = 5 * time.Second

	op := func() (string, error) {
		if err := writeArchive(path, snap); err != nil {
			log.Warn().Err(err).Msg("Backup write failed, retrying")
			return "", err
		}
		return path, nil
	}

	if _, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(exp),
		backoff.WithMaxElapsedTime(writeRetryTime),
	); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	m := telemetry.GetMetrics()
	m.BackupRunsTotal.Add(ctx, 1)
	m.BackupDuration.Record(ctx, float64(time.Since(started))/float64(time.Millisecond))

	if err := r.prune(); err != nil {
		log.Warn().Err(err).Msg("Backup retention prune failed")
	}

	log.Info().
		Str("path", path).
		Int("engagements", len(snap.Engagements)).
		Int("translations", len(snap.Translations)).
		Msg("Backup written")

	return nil
}

// RestoreLatest loads the newest readable archive into the stores. Corrupt
// archives are skipped with a warning and the next-newest is tried, so one
// bad write never blocks a boot. Collections that already hold data are
// left alone. Having no archives at all is not an error.
func (r *Runner) RestoreLatest(ctx context.Context) error {
	if r.cfg.Dir == "" {
		return nil
	}

	names, err := listArchives(r.cfg.Dir)
	if err != nil {
		return err
	}

	for _, name := range names {
		snap, err := readArchive(filepath.Join(r.cfg.Dir, name))
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Skipping unreadable archive")
			continue
		}
		if err := store.RestoreSnapshot(ctx, r.stores, snap); err != nil {
			return err
		}
		log.Info().Str("file", name).Time("taken_at", snap.TakenAt).Msg("Restored from backup")
		return nil
	}

	log.Debug().Str("dir", r.cfg.Dir).Msg("No usable backup archives")
	return nil
}

// prune removes the oldest archives beyond the retention count.
func (r *Runner) prune() error {
	if r.cfg.Retain <= 0 {
		return nil
	}

	names, err := listArchives(r.cfg.Dir)
	if err != nil {
		return err
	}
	if len(names) <= r.cfg.Retain {
		return nil
	}

	for _, name := range names[r.cfg.Retain:] {
		path := filepath.Join(r.cfg.Dir, name)
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Failed to delete old archive")
			continue
		}
		log.Debug().Str("file", name).Msg("Deleted old archive")
	}

	return nil
}

// listArchives returns the archive file names in dir, newest first. A
// missing directory holds no archives.
func listArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "koradi-") || filepath.Ext(name) != ".krbk" {
			continue
		}
		names = append(names, name)
	}

	slices.Sort(names)
	slices.Reverse(names)
	return names, nil
}
