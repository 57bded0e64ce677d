// Package config loads the client configuration from a TOML file, a .env file
// and WEIGHTTRACKER_* environment variables, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/lesniewskii/weight-tracker/internal/domain"
)

const (
	DefaultBackendURL = "http://localhost:8000"
	DefaultAddr       = ":8080"
	DefaultWebDir     = ""
	DefaultLogLevel   = "info"
)

type Config struct {
	Environment string `toml:"-"`
	BackendURL  string `toml:"backend_url"`
	Addr        string `toml:"addr"`
	WebDir      string `toml:"web_dir"`
	Unit        string `toml:"unit"`
	SessionPath string `toml:"session_path"`
	// Token, when set, is used instead of the stored session. Environment only.
	Token string `toml:"-"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Environment: "development",
		BackendURL:  DefaultBackendURL,
		Addr:        DefaultAddr,
		WebDir:      DefaultWebDir,
		Unit:        domain.UnitKg,
		SessionPath: defaultSessionPath(),
		LogLevel:    DefaultLogLevel,
		LogToStdout: true,
	}
}

// Load reads the env section of the TOML file at path, then applies the .env
// file at dotenvPath and the process environment. Missing files are not an
// error; an empty path skips the file.
func Load(env, path, dotenvPath string) (*Config, error) {
	if env == "" {
		env = "development"
	}
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	cfg := Default()
	if path != "" {
		fromFile, err := loadFile(env, path)
		if err != nil {
			return nil, err
		}
		if fromFile != nil {
			merge(cfg, fromFile)
		}
	}
	cfg.Environment = strings.ToLower(env)

	applyEnv(cfg)

	unit, err := domain.ParseUnit(cfg.Unit)
	if err != nil {
		return nil, err
	}
	cfg.Unit = unit
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if cfg.BackendURL == "" {
		return nil, errors.New("backend url is empty")
	}
	return cfg, nil
}

func loadFile(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge copies the non-zero fields of src over dst.
func merge(dst, src *Config) {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.BackendURL, src.BackendURL)
	set(&dst.Addr, src.Addr)
	set(&dst.WebDir, src.WebDir)
	set(&dst.Unit, src.Unit)
	set(&dst.SessionPath, src.SessionPath)
	set(&dst.LogLevel, src.LogLevel)
	set(&dst.LogsPath, src.LogsPath)
	dst.LogToStdout = src.LogToStdout || src.LogsPath == ""
	dst.LogFormatJSON = src.LogFormatJSON
}

func applyEnv(cfg *Config) {
	cfg.BackendURL = env("WEIGHTTRACKER_BACKEND_URL", env("BACKEND_API_URL", cfg.BackendURL))
	cfg.Addr = env("WEIGHTTRACKER_ADDR", cfg.Addr)
	cfg.WebDir = env("WEIGHTTRACKER_WEB_DIR", cfg.WebDir)
	cfg.Unit = env("WEIGHTTRACKER_UNIT", cfg.Unit)
	cfg.SessionPath = env("WEIGHTTRACKER_SESSION_PATH", cfg.SessionPath)
	cfg.LogLevel = env("WEIGHTTRACKER_LOG_LEVEL", cfg.LogLevel)
	cfg.LogsPath = env("WEIGHTTRACKER_LOGS_PATH", cfg.LogsPath)
	cfg.Token = env("WEIGHTTRACKER_TOKEN", cfg.Token)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".weight-tracker", "session.json")
	}
	return filepath.Join(dir, "weight-tracker", "session.json")
}
