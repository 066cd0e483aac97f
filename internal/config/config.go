package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// RegistrationCodes maps the secret typed at registration to the account flags it grants.
type RegistrationCodes struct {
	User     string
	Elevated string
	Admin    string
}

type Config struct {
	DBDriver      string
	DBDSN         string
	DBDebug       bool
	ServerPort    string
	SessionSecret string

	AdminUsername string
	AdminPassword string
	Registration  RegistrationCodes

	UploadDir string
	FilesRoot string

	BackupDir       string
	BackupInterval  time.Duration
	BackupRetention int
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:      getenv("DB_DRIVER", "postgres"),
		DBDSN:         os.Getenv("DB_DSN"),
		DBDebug:       os.Getenv("DB_DEBUG") == "1",
		ServerPort:    getenv("SERVER_PORT", "8080"),
		SessionSecret: os.Getenv("SESSION_SECRET"),

		AdminUsername: getenv("ADMIN_USERNAME", "administrator"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		Registration: RegistrationCodes{
			User:     os.Getenv("REGISTRATION_CODE_USER"),
			Elevated: os.Getenv("REGISTRATION_CODE_ELEVATED"),
			Admin:    os.Getenv("REGISTRATION_CODE_ADMIN"),
		},

		UploadDir: getenv("UPLOAD_DIR", "uploads"),
		FilesRoot: getenv("FILES_ROOT", "miniRoot"),

		BackupDir: getenv("BACKUP_DIR", "backups"),
	}

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		log.Fatalf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}

	interval, err := time.ParseDuration(getenv("BACKUP_INTERVAL", "72h"))
	if err != nil || interval < 0 {
		log.Fatalf("invalid BACKUP_INTERVAL: %q", os.Getenv("BACKUP_INTERVAL"))
	}
	cfg.BackupInterval = interval

	retention, err := strconv.Atoi(getenv("BACKUP_RETENTION", "0"))
	if err != nil || retention < 0 {
		log.Fatalf("invalid BACKUP_RETENTION: %q", os.Getenv("BACKUP_RETENTION"))
	}
	cfg.BackupRetention = retention

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
