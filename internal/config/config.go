// Package config reads drawr settings from the environment, after loading an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"drawr/internal/domain"
	"drawr/internal/editor"
	"drawr/internal/history"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongodb"
)

// Config is the full set of process settings.
type Config struct {
	DataDir  string
	DBDriver string
	DBDSN    string
	MongoDB  string
	LogLevel string

	HistoryCapacity int
	CanvasWidth     float64
	CanvasHeight    float64
	Style           domain.ShapeConfig
	CommitKey       string

	// Autosave is a cron spec; empty disables autosave.
	Autosave  string
	WatchFile string
	HTTPAddr  string

	// MCPAddr serves MCP over streamable HTTP from the desktop app; empty
	// disables it.
	MCPAddr string
	// MCPApproval makes destructive MCP tools wait for the desktop app.
	MCPApproval bool
}

// Load reads .env files (missing files are fine) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	defaults := editor.DefaultOptions()
	cfg := &Config{
		DataDir:   get("DRAWR_DATA_DIR", defaultDataDir()),
		DBDriver:  strings.ToLower(get("DRAWR_DB_DRIVER", DriverSQLite)),
		DBDSN:     get("DRAWR_DB_DSN", ""),
		MongoDB:   get("DRAWR_MONGO_DATABASE", "drawr"),
		LogLevel:  get("DRAWR_LOG_LEVEL", "info"),
		CommitKey: get("DRAWR_COMMIT_KEY", defaults.CommitKey),
		Autosave:  get("DRAWR_AUTOSAVE", ""),
		WatchFile: get("DRAWR_WATCH_FILE", ""),
		HTTPAddr:  get("DRAWR_HTTP_ADDR", ":8080"),
		MCPAddr:   get("DRAWR_MCP_ADDR", ""),
		Style: domain.ShapeConfig{
			Fill:   get("DRAWR_FILL", defaults.Style.Fill),
			Stroke: get("DRAWR_STROKE", defaults.Style.Stroke),
		},
	}

	var err error
	if cfg.HistoryCapacity, err = cast.ToIntE(get("DRAWR_HISTORY_CAPACITY", fmt.Sprint(history.DefaultCapacity))); err != nil {
		return nil, fmt.Errorf("DRAWR_HISTORY_CAPACITY: %w", err)
	}
	if cfg.CanvasWidth, err = cast.ToFloat64E(get("DRAWR_CANVAS_WIDTH", fmt.Sprint(defaults.Width))); err != nil {
		return nil, fmt.Errorf("DRAWR_CANVAS_WIDTH: %w", err)
	}
	if cfg.CanvasHeight, err = cast.ToFloat64E(get("DRAWR_CANVAS_HEIGHT", fmt.Sprint(defaults.Height))); err != nil {
		return nil, fmt.Errorf("DRAWR_CANVAS_HEIGHT: %w", err)
	}
	if cfg.MCPApproval, err = cast.ToBoolE(get("DRAWR_MCP_APPROVAL", "true")); err != nil {
		return nil, fmt.Errorf("DRAWR_MCP_APPROVAL: %w", err)
	}
	if cfg.Style.StrokeWidth, err = cast.ToFloat64E(get("DRAWR_STROKE_WIDTH", fmt.Sprint(defaults.Style.StrokeWidth))); err != nil {
		return nil, fmt.Errorf("DRAWR_STROKE_WIDTH: %w", err)
	}

	switch cfg.DBDriver {
	case DriverSQLite, DriverPostgres, DriverMySQL, DriverMongo:
	default:
		return nil, fmt.Errorf("DRAWR_DB_DRIVER: unsupported driver %q", cfg.DBDriver)
	}
	if cfg.DBDriver != DriverSQLite && cfg.DBDSN == "" {
		return nil, fmt.Errorf("DRAWR_DB_DSN is required for %s", cfg.DBDriver)
	}
	if cfg.HistoryCapacity < 1 {
		return nil, fmt.Errorf("DRAWR_HISTORY_CAPACITY must be positive, got %d", cfg.HistoryCapacity)
	}
	return cfg, nil
}

// SQLitePath is the database file used when DBDriver is sqlite and no DSN is set.
func (c *Config) SQLitePath() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	return filepath.Join(c.DataDir, "drawr.db")
}

// EditorOptions returns the editor settings carried by the config.
func (c *Config) EditorOptions() editor.Options {
	return editor.Options{
		Width:           c.CanvasWidth,
		Height:          c.CanvasHeight,
		Style:           c.Style,
		HistoryCapacity: c.HistoryCapacity,
		CommitKey:       c.CommitKey,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "drawr")
	}
	return filepath.Join(home, ".local", "share", "drawr")
}
