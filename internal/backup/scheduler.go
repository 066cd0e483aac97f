// Package backup periodically snapshots the SQLite database into a backup directory.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

const (
	filePrefix  = "backup_"
	fileSuffix  = ".db"
	stampLayout = "20060102_150405"
)

// Config holds the scheduler configuration.
type Config struct {
	Interval  time.Duration // zero disables the scheduler
	Retention int           // number of backups to keep (0 = unlimited)
	Dir       string        // default: "backups"
}

// Scheduler owns the periodic backup goroutine. It is started and stopped by main.
type Scheduler struct {
	db     *gorm.DB
	config Config
	now    func() time.Time
	logger *slog.Logger

	ticker   *time.Ticker
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewScheduler(db *gorm.DB, config Config) *Scheduler {
	if config.Dir == "" {
		config.Dir = "backups"
	}
	if config.Retention < 0 {
		config.Retention = 0
	}
	return &Scheduler{
		db:     db,
		config: config,
		now:    time.Now,
		logger: slog.Default().With("component", "backup"),
		stopCh: make(chan struct{}),
	}
}

// Enabled reports whether Start will schedule anything. Only SQLite databases are backed up;
// other drivers have their own tooling.
func (s *Scheduler) Enabled() bool {
	return s.config.Interval > 0 && s.db.Dialector.Name() == "sqlite"
}

// Start launches the backup loop. The first backup runs one interval after start.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.Enabled() {
		s.logger.Info("backup scheduler disabled",
			"interval", s.config.Interval,
			"driver", s.db.Dialector.Name())
		return
	}

	s.ticker = time.NewTicker(s.config.Interval)
	s.done = make(chan struct{})
	s.logger.Info("backup scheduler started",
		"interval", s.config.Interval,
		"retention", s.config.Retention,
		"dir", s.config.Dir)

	go func() {
		defer close(s.done)
		for {
			select {
			case <-s.ticker.C:
				if _, err := s.RunOnce(ctx); err != nil {
					s.logger.Error("scheduled backup failed", "error", err)
				}
			case <-s.stopCh:
				s.logger.Info("backup scheduler stopped")
				return
			case <-ctx.Done():
				s.logger.Info("backup scheduler context cancelled")
				return
			}
		}
	}()
}

// Stop ends the loop and waits for a backup in progress to finish. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.ticker != nil {
			s.ticker.Stop()
		}
	})
	if s.done != nil {
		<-s.done
	}
}

// RunOnce writes one backup and applies the retention policy. It returns the backup path.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.config.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(s.config.Dir, filePrefix+s.now().Format(stampLayout)+fileSuffix)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("backup %s already exists", path)
	}

	// VACUUM INTO produces a consistent copy even while the database is being written.
	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", path).Error; err != nil {
		return "", fmt.Errorf("write backup %s: %w", path, err)
	}
	s.logger.Info("backup completed", "file", path)

	if s.config.Retention > 0 {
		if err := s.applyRetention(); err != nil {
			s.logger.Error("backup retention failed", "error", err)
		}
	}
	return path, nil
}

// applyRetention removes the oldest backups beyond the retention count. Backup names embed
// their timestamp, so name order is age order.
func (s *Scheduler) applyRetention() error {
	backups, err := List(s.config.Dir)
	if err != nil {
		return err
	}
	if len(backups) <= s.config.Retention {
		return nil
	}
	for _, path := range backups[:len(backups)-s.config.Retention] {
		if err := os.Remove(path); err != nil {
			s.logger.Error("failed to delete old backup", "path", path, "error", err)
			continue
		}
		s.logger.Info("deleted old backup", "path", path)
	}
	return nil
}

// List returns the backup files in dir, oldest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}
