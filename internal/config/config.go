package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "EPISTLES_"

// DefaultStorageKey is the fixed key the journal document is stored under.
const DefaultStorageKey = "timeless_epistles_data_v1"

// Config defines application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Backup    BackupConfig    `yaml:"backup"`
	Import    ImportConfig    `yaml:"import"`
	Journal   JournalConfig   `yaml:"journal"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
	Key    string `yaml:"key"`
}

type BackupConfig struct {
	Driver string   `yaml:"driver"`
	Root   string   `yaml:"root"`
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

type ImportConfig struct {
	UpgradeLegacy bool `yaml:"upgrade_legacy"`
}

type JournalConfig struct {
	Timezone string `yaml:"timezone"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "epistles.db",
			Key:    DefaultStorageKey,
		},
		Backup: BackupConfig{
			Driver: "fs",
			Root:   "backups",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(envPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(name string, dst *string) {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}
	setBool := func(name string, dst *bool) error {
		v := os.Getenv(envPrefix + name)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
		}
		*dst = b
		return nil
	}

	setString("SERVER_HOST", &cfg.Server.Host)
	if portStr := os.Getenv(envPrefix + "SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid %sSERVER_PORT: %w", envPrefix, err)
		}
		cfg.Server.Port = port
	}
	setString("TRANSPORT_MODE", &cfg.Transport.Mode)
	if err := setBool("AUTH_ENABLED", &cfg.Auth.Enabled); err != nil {
		return err
	}
	setString("AUTH_TOKEN", &cfg.Auth.Token)
	setString("STORAGE_DRIVER", &cfg.Storage.Driver)
	setString("STORAGE_PATH", &cfg.Storage.Path)
	setString("STORAGE_DSN", &cfg.Storage.DSN)
	setString("STORAGE_KEY", &cfg.Storage.Key)
	setString("BACKUP_DRIVER", &cfg.Backup.Driver)
	setString("BACKUP_ROOT", &cfg.Backup.Root)
	setString("BACKUP_S3_BUCKET", &cfg.Backup.S3.Bucket)
	setString("BACKUP_S3_REGION", &cfg.Backup.S3.Region)
	setString("BACKUP_S3_ENDPOINT", &cfg.Backup.S3.Endpoint)
	if err := setBool("BACKUP_S3_PATH_STYLE", &cfg.Backup.S3.PathStyle); err != nil {
		return err
	}
	if err := setBool("IMPORT_UPGRADE_LEGACY", &cfg.Import.UpgradeLegacy); err != nil {
		return err
	}
	setString("JOURNAL_TIMEZONE", &cfg.Journal.Timezone)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_PATH", &cfg.Log.Path)
	return nil
}

// Validate rejects unknown drivers and modes and missing required settings.
func (c Config) Validate() error {
	var errs []error

	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		errs = append(errs, fmt.Errorf("transport.mode %q must be stdio or http", c.Transport.Mode))
	}
	if c.Transport.Mode == "http" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.Token) == "" {
		errs = append(errs, errors.New("auth.token is required when auth is enabled"))
	}

	switch c.Storage.Driver {
	case "sqlite", "file":
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("storage.path is required for driver %q", c.Storage.Driver))
		}
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for driver postgres"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q must be sqlite, postgres, file or memory", c.Storage.Driver))
	}
	if c.Storage.Key == "" {
		errs = append(errs, errors.New("storage.key must not be empty"))
	}

	switch c.Backup.Driver {
	case "fs":
		if c.Backup.Root == "" {
			errs = append(errs, errors.New("backup.root is required for driver fs"))
		}
	case "s3":
		if c.Backup.S3.Bucket == "" {
			errs = append(errs, errors.New("backup.s3.bucket is required for driver s3"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("backup.driver %q must be fs, s3 or memory", c.Backup.Driver))
	}

	if _, err := c.Journal.Location(); err != nil {
		errs = append(errs, err)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}

	return errors.Join(errs...)
}

// Location resolves the configured time zone; empty means local time.
func (j JournalConfig) Location() (*time.Location, error) {
	if j.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(j.Timezone)
	if err != nil {
		return nil, fmt.Errorf("journal.timezone: %w", err)
	}
	return loc, nil
}
