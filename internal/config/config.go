package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/semmidev/custos/internal/domain"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Defaults     DefaultsConfig     `mapstructure:"defaults"`
	Databases    []DatabaseConfig   `mapstructure:"databases"`
	Backup       BackupConfig       `mapstructure:"backup"`
	Notification NotificationConfig `mapstructure:"notification"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// DefaultsConfig holds the global backup settings a database entry can
// override per target.
type DefaultsConfig struct {
	BackupDir   string `mapstructure:"backup_dir"`
	RetainCount int    `mapstructure:"retain_count"`
}

type DatabaseConfig struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Enabled  bool   `mapstructure:"enabled"`

	// Per-target overrides of the defaults section. RetainCount is a
	// pointer because 0 is a meaningful value (unlimited retention) and
	// must be distinguishable from "not set".
	BackupDir   string `mapstructure:"backup_dir"`
	RetainCount *int   `mapstructure:"retain_count"`

	// MSSQL specific
	Instance string `mapstructure:"instance"`

	// MongoDB specific
	AuthDatabase string `mapstructure:"auth_database"`
}

type BackupConfig struct {
	Compress            bool          `mapstructure:"compress"`
	Timeout             time.Duration `mapstructure:"timeout"`
	Workers             int           `mapstructure:"workers"`
	KeepFailedArtifacts bool          `mapstructure:"keep_failed_artifacts"`
}

type NotificationConfig struct {
	Timeout  time.Duration  `mapstructure:"timeout"`
	Email    EmailConfig    `mapstructure:"email"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type EmailConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	SMTPHost   string   `mapstructure:"smtp_host"`
	SMTPPort   int      `mapstructure:"smtp_port"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	From       string   `mapstructure:"from"`
	Recipients []string `mapstructure:"recipients"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app.name", "custos")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("defaults.backup_dir", "/backups")
	v.SetDefault("defaults.retain_count", 5)
	v.SetDefault("backup.timeout", "15m")
	v.SetDefault("backup.workers", 1)
	v.SetDefault("notification.timeout", "30s")
	v.SetDefault("notification.email.smtp_host", "smtp.gmail.com")
	v.SetDefault("notification.email.smtp_port", 587)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects malformed entries instead of silently defaulting them.
func (c *Config) Validate() error {
	if len(c.Databases) == 0 {
		return fmt.Errorf("at least one database configuration is required")
	}

	for i, db := range c.Databases {
		if db.Name == "" && db.Database == "" {
			return fmt.Errorf("database[%d]: name or database is required", i)
		}
		label := db.Name
		if label == "" {
			label = db.Database
		}
		if db.Type == "" {
			return fmt.Errorf("database %q: type is required", label)
		}
		if db.Host == "" {
			return fmt.Errorf("database %q: host is required", label)
		}
		if db.Port <= 0 {
			return fmt.Errorf("database %q: port must be positive", label)
		}
		if db.Database == "" {
			return fmt.Errorf("database %q: database is required", label)
		}
		if db.RetainCount != nil && *db.RetainCount < 0 {
			return fmt.Errorf("database %q: retain_count must not be negative", label)
		}
		if db.BackupDir == "" && c.Defaults.BackupDir == "" {
			return fmt.Errorf("database %q: no backup_dir and no default configured", label)
		}
	}

	if c.Defaults.RetainCount < 0 {
		return fmt.Errorf("defaults.retain_count must not be negative")
	}
	if c.Backup.Workers < 1 {
		return fmt.Errorf("backup.workers must be at least 1")
	}

	if c.Notification.Email.Enabled {
		email := c.Notification.Email
		if email.SMTPHost == "" || email.From == "" {
			return fmt.Errorf("notification.email: smtp_host and from are required when enabled")
		}
		if len(email.Recipients) == 0 {
			return fmt.Errorf("notification.email: at least one recipient is required when enabled")
		}
	}
	if c.Notification.Telegram.Enabled && c.Notification.Telegram.BotToken == "" {
		return fmt.Errorf("notification.telegram: bot_token is required when enabled")
	}

	return nil
}

func (c *Config) EnabledDatabases() []DatabaseConfig {
	var enabled []DatabaseConfig
	for _, db := range c.Databases {
		if db.Enabled {
			enabled = append(enabled, db)
		}
	}
	return enabled
}

// Targets converts the enabled database entries into target descriptors,
// applying the global defaults where no per-target override is set.
func (c *Config) Targets() []domain.Target {
	var targets []domain.Target
	for _, db := range c.EnabledDatabases() {
		name := db.Name
		if name == "" {
			name = db.Database
		}

		backupDir := db.BackupDir
		if backupDir == "" {
			backupDir = c.Defaults.BackupDir
		}

		retain := c.Defaults.RetainCount
		if db.RetainCount != nil {
			retain = *db.RetainCount
		}

		targets = append(targets, domain.Target{
			Name:         name,
			Engine:       domain.EngineKind(strings.ToLower(db.Type)),
			Host:         db.Host,
			Port:         db.Port,
			Username:     db.Username,
			Password:     db.Password,
			Database:     db.Database,
			Instance:     db.Instance,
			AuthDatabase: db.AuthDatabase,
			BackupDir:    backupDir,
			RetainCount:  retain,
		})
	}
	return targets
}
