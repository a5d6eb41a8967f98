package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"biblioteca-backend/internal/platform/db"
)

const (
	DefaultPath       = "config/config.yaml"
	DefaultStorageKey = "prestamos"

	ModeDev     = "dev"
	ModeRelease = "release"

	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Server struct {
	Addr         string   `yaml:"addr"`
	Cert         string   `yaml:"cert"`
	Key          string   `yaml:"key"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type SQLite struct {
	Path string `yaml:"path"`
}

type Postgres struct {
	URL string `yaml:"url"`
}

type Redis struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

type Storage struct {
	Driver     string            `yaml:"driver"`
	Key        string            `yaml:"key"`
	Table      string            `yaml:"table"`
	QuotaUnits int               `yaml:"quota_units"` // 0 = 無制限
	Timeout    time.Duration     `yaml:"timeout"`
	SQLite     SQLite            `yaml:"sqlite"`
	MySQL      db.DatabaseConfig `yaml:"database"`
	Postgres   Postgres          `yaml:"postgres"`
	Redis      Redis             `yaml:"redis"`
}

type Form struct {
	SuccessHideAfter time.Duration `yaml:"success_hide_after"`
}

type Catalog struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"` // ファイル変更で選択肢を差し替える
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Diagnostics struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	Version     string      `yaml:"version"`
	Mode        string      `yaml:"mode"`
	Server      Server      `yaml:"server"`
	Storage     Storage     `yaml:"storage"`
	Form        Form        `yaml:"form"`
	Catalog     Catalog     `yaml:"catalog"`
	Log         Log         `yaml:"log"`
	Diagnostics Diagnostics `yaml:"diagnostics"`
}

// Default はファイルが無くても動く最小構成（メモリ保存・dev）
func Default() Config {
	return Config{
		Version: "1",
		Mode:    ModeDev,
		Server: Server{
			Addr:         ":8080",
			AllowOrigins: []string{"http://localhost:3000"},
		},
		Storage: Storage{
			Driver:     DriverMemory,
			Key:        DefaultStorageKey,
			Table:      "web_storage",
			QuotaUnits: 5 * 1024 * 1024,
			Timeout:    3 * time.Second,
			SQLite:     SQLite{Path: "data/biblioteca.db"},
			MySQL: db.DatabaseConfig{
				Host: "127.0.0.1",
				Port: 3306,
			},
			Redis: Redis{Addr: "localhost:6379", Prefix: "biblio:"},
		},
		Form:        Form{SuccessHideAfter: 5 * time.Second},
		Log:         Log{Level: "info"},
		Diagnostics: Diagnostics{Enabled: true},
	}
}

// LoadConfig reads path over the defaults and applies BIBLIO_* env overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault は path が存在しなければ Default を返す（CLI用）
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := cfg.applyEnv(); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return LoadConfig(path)
}

func (c *Config) Validate() error {
	if c.Mode != ModeDev && c.Mode != ModeRelease {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeDev, ModeRelease, c.Mode)
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverMySQL, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage.key is required")
	}
	if c.Form.SuccessHideAfter <= 0 {
		return errors.New("form.success_hide_after must be > 0")
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Mode = getEnv("BIBLIO_MODE", c.Mode)
	c.Server.Addr = getEnv("BIBLIO_ADDR", c.Server.Addr)
	c.Storage.Driver = getEnv("BIBLIO_STORAGE_DRIVER", c.Storage.Driver)
	c.Log.Level = getEnv("BIBLIO_LOG_LEVEL", c.Log.Level)
	if v := os.Getenv("BIBLIO_SUCCESS_HIDE_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BIBLIO_SUCCESS_HIDE_AFTER の解析失敗: %w", err)
		}
		c.Form.SuccessHideAfter = d
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
