// Package config loads ComCard settings from defaults, an optional TOML
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ConfigFileEnv names the variable holding the optional TOML file path.
const ConfigFileEnv = "COMCARD_CONFIG"

type Config struct {
	// HTTP Server
	Port         string `toml:"port"`
	LogLevel     string `toml:"log_level"`
	RateLimitRPM int    `toml:"rate_limit_rpm"`

	// Local key-value store
	KVBackend    string `toml:"kv_backend"`
	SQLiteDBPath string `toml:"sqlite_db_path"`
	RedisURL     string `toml:"redis_url"`
	RedisPrefix  string `toml:"redis_prefix"`

	// Remote database
	RemoteDatabaseURL string `toml:"remote_database_url"`
	RemoteDatabaseKey string `toml:"remote_database_key"`

	// Export artifacts
	ArtifactBackend  string        `toml:"artifact_backend"`
	ArtifactTTL      time.Duration `toml:"artifact_ttl"`
	ArtifactMaxItems int           `toml:"artifact_max_items"`

	// Export and mail. A delay of 0 turns the wait off.
	ExportFormat  string        `toml:"export_format"`
	MailTransport string        `toml:"mail_transport"`
	MailDelay     time.Duration `toml:"mail_delay"`
	ApproverEmail string        `toml:"approver_email"`

	// Backup-on-write
	BackupEnabled   bool          `toml:"backup_enabled"`
	BackupFormat    string        `toml:"backup_format"`
	BackupTransport string        `toml:"backup_transport"`
	BackupDelay     time.Duration `toml:"backup_delay"`
	BackupDir       string        `toml:"backup_dir"`
	BackupEmail     string        `toml:"backup_email"`
	OpenLinks       bool          `toml:"open_links"`

	// Session
	Password      string        `toml:"password"`
	SessionSecret string        `toml:"session_secret"`
	SessionTTL    time.Duration `toml:"session_ttl"`

	// AMQP
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Google Sheets
	GoogleSpreadsheetID      string `toml:"google_spreadsheet_id"`
	GoogleServiceAccountFile string `toml:"google_service_account_file"`
	GoogleServiceAccountJSON string `toml:"google_service_account_json"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:         "8081",
		LogLevel:     "info",
		RateLimitRPM: 60,

		KVBackend:    "sqlite",
		SQLiteDBPath: "./data/comcard.db",
		RedisPrefix:  "comcard:",

		ArtifactBackend:  "memory",
		ArtifactTTL:      15 * time.Minute,
		ArtifactMaxItems: 64,

		ExportFormat:  "xlsx",
		MailTransport: "mailto",
		MailDelay:     time.Second,

		BackupEnabled:   true,
		BackupFormat:    "csv",
		BackupTransport: "webmail",
		BackupDelay:     500 * time.Millisecond,
		BackupDir:       "./data/backups",

		SessionTTL: 12 * time.Hour,

		AMQPExchange: "comcard",
		AMQPQueue:    "backup_requests",
	}
}

// Load builds the configuration. A TOML file named by COMCARD_CONFIG is
// applied over the defaults and environment variables over both.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile decodes a TOML file over the current values.
func (c *Config) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.RateLimitRPM = getEnvInt("RATE_LIMIT_RPM", c.RateLimitRPM)

	c.KVBackend = getEnv("KV_BACKEND", c.KVBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RedisPrefix = getEnv("REDIS_PREFIX", c.RedisPrefix)

	c.RemoteDatabaseURL = getEnv("REMOTE_DATABASE_URL", c.RemoteDatabaseURL)
	c.RemoteDatabaseKey = getEnv("REMOTE_DATABASE_KEY", c.RemoteDatabaseKey)

	c.ArtifactBackend = getEnv("ARTIFACT_BACKEND", c.ArtifactBackend)
	c.ArtifactTTL = getEnvDuration("ARTIFACT_TTL", c.ArtifactTTL)
	c.ArtifactMaxItems = getEnvInt("ARTIFACT_MAX_ITEMS", c.ArtifactMaxItems)

	c.ExportFormat = getEnv("EXPORT_FORMAT", c.ExportFormat)
	c.MailTransport = getEnv("MAIL_TRANSPORT", c.MailTransport)
	c.MailDelay = getEnvDuration("MAIL_DELAY", c.MailDelay)
	c.ApproverEmail = getEnv("APPROVER_EMAIL", c.ApproverEmail)

	c.BackupEnabled = getEnvBool("BACKUP_ENABLED", c.BackupEnabled)
	c.BackupFormat = getEnv("BACKUP_FORMAT", c.BackupFormat)
	c.BackupTransport = getEnv("BACKUP_TRANSPORT", c.BackupTransport)
	c.BackupDelay = getEnvDuration("BACKUP_DELAY", c.BackupDelay)
	c.BackupDir = getEnv("BACKUP_DIR", c.BackupDir)
	c.BackupEmail = getEnv("BACKUP_EMAIL", c.BackupEmail)
	c.OpenLinks = getEnvBool("OPEN_LINKS", c.OpenLinks)

	c.Password = getEnv("COMCARD_PASSWORD", c.Password)
	c.SessionSecret = getEnv("SESSION_SECRET", c.SessionSecret)
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)
}

// SheetsEnabled reports whether exports are also published to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// AMQPEnabled reports whether backups are queued instead of run in-process.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	errs = append(errs, oneOf("kv backend", c.KVBackend, "sqlite", "memory", "redis")...)
	errs = append(errs, oneOf("artifact backend", c.ArtifactBackend, "memory", "redis")...)
	errs = append(errs, oneOf("export format", c.ExportFormat, "xlsx", "csv", "tsv")...)
	errs = append(errs, oneOf("backup format", c.BackupFormat, "xlsx", "csv", "tsv")...)
	errs = append(errs, oneOf("mail transport", c.MailTransport, "mailto", "webmail")...)
	errs = append(errs, oneOf("backup transport", c.BackupTransport, "mailto", "webmail")...)

	if c.KVBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if (c.KVBackend == "redis" || c.ArtifactBackend == "redis") && c.RedisURL == "" {
		errs = append(errs, "Redis URL is required when a redis backend is selected")
	} else if c.RedisURL != "" {
		if u, err := url.Parse(c.RedisURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid Redis URL '%s': %v", c.RedisURL, err))
		} else if u.Scheme != "redis" && u.Scheme != "rediss" {
			errs = append(errs, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", u.Scheme))
		}
	}

	for name, addr := range map[string]string{"approver email": c.ApproverEmail, "backup email": c.BackupEmail} {
		if addr == "" {
			continue
		}
		if _, err := mail.ParseAddress(addr); err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s '%s'", name, addr))
		}
	}

	if c.Password == "" {
		errs = append(errs, "COMCARD_PASSWORD cannot be empty")
	}
	if len(c.SessionSecret) < 16 {
		errs = append(errs, "SESSION_SECRET must be at least 16 characters")
	}
	if c.SessionTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session ttl %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.MailDelay < 0 || c.BackupDelay < 0 {
		errs = append(errs, "mail and backup delays cannot be negative")
	}
	if c.ArtifactTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid artifact ttl %v: must be at least 1 second", c.ArtifactTTL))
	}
	if c.ArtifactMaxItems < 1 {
		errs = append(errs, fmt.Sprintf("invalid artifact max items %d: must be at least 1", c.ArtifactMaxItems))
	}
	if c.RateLimitRPM < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets publishing")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errs) > 0 {
		return errors.New("configuration validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func oneOf(name, value string, valid ...string) []string {
	for _, v := range valid {
		if value == v {
			return nil
		}
	}
	return []string{fmt.Sprintf("invalid %s '%s': must be one of %v", name, value, valid)}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
