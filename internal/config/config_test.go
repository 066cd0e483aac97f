package config

import (
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	t.Setenv("DB_DSN", "file:test.db")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.BackupInterval != 72*time.Hour {
		t.Errorf("BackupInterval = %v", cfg.BackupInterval)
	}
	if cfg.UploadDir != "uploads" || cfg.FilesRoot != "miniRoot" || cfg.BackupDir != "backups" {
		t.Errorf("unexpected directories %+v", cfg)
	}
	if cfg.BackupRetention != 0 || cfg.DBDebug {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoad_overrides(t *testing.T) {
	t.Setenv("DB_DSN", "host=db")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("BACKUP_INTERVAL", "0")
	t.Setenv("BACKUP_RETENTION", "5")
	t.Setenv("REGISTRATION_CODE_ELEVATED", "theresa")
	t.Setenv("DB_DEBUG", "1")

	cfg := Load()

	if cfg.BackupInterval != 0 || cfg.BackupRetention != 5 {
		t.Errorf("backup settings = %v/%d", cfg.BackupInterval, cfg.BackupRetention)
	}
	if cfg.Registration.Elevated != "theresa" || !cfg.DBDebug {
		t.Errorf("unexpected config %+v", cfg)
	}
}
