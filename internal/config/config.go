package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, populated from the environment.
type Config struct {
	Port     string `env:"PUNCHCARD_PORT" envDefault:"8080"`
	DBPath   string `env:"PUNCHCARD_DB_PATH" envDefault:"punchcard.db"`
	LogLevel string `env:"PUNCHCARD_LOG_LEVEL" envDefault:"info"`

	// Web push (optional; push routes are disabled when unset).
	VAPIDPublicKey  string `env:"PUNCHCARD_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"PUNCHCARD_VAPID_PRIVATE_KEY"`
	PushSubscriber  string `env:"PUNCHCARD_PUSH_SUBSCRIBER" envDefault:"mailto:noreply@punchcard.local"`

	// Encrypted off-site backups (optional; disabled when the bucket is unset).
	BackupS3Endpoint  string `env:"PUNCHCARD_BACKUP_S3_ENDPOINT"`
	BackupS3Bucket    string `env:"PUNCHCARD_BACKUP_S3_BUCKET"`
	BackupS3Region    string `env:"PUNCHCARD_BACKUP_S3_REGION" envDefault:"auto"`
	BackupS3AccessKey string `env:"PUNCHCARD_BACKUP_S3_ACCESS_KEY"`
	BackupS3SecretKey string `env:"PUNCHCARD_BACKUP_S3_SECRET_KEY"`
	BackupPassphrase  string `env:"PUNCHCARD_BACKUP_PASSPHRASE"`
	BackupIntervalHrs int    `env:"PUNCHCARD_BACKUP_INTERVAL_HOURS" envDefault:"24"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// PushEnabled reports whether a VAPID key pair is configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// BackupEnabled reports whether S3 backup settings are complete.
func (c *Config) BackupEnabled() bool {
	return c.BackupS3Bucket != "" && c.BackupS3AccessKey != "" &&
		c.BackupS3SecretKey != "" && c.BackupPassphrase != ""
}
