package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stockgrid tools.
type Config struct {
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
	Grid    Grid    `yaml:"grid"`
	Market  Market  `yaml:"market"`
	Alpaca  Alpaca  `yaml:"alpaca"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Logging configures the application logger. File is required by the TUI,
// which owns the terminal.
type Logging struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Grid holds table geometry. Heights are in terminal lines.
type Grid struct {
	RowHeight    int `yaml:"row_height"`
	HeaderHeight int `yaml:"header_height"`
	// FrameMillis is the scroll coalescing interval; wheel events inside
	// one frame collapse into a single render.
	FrameMillis int `yaml:"frame_millis"`
}

// Market controls which market is shown and how mock data is generated
// when nothing has been gathered yet.
type Market struct {
	Default     string `yaml:"default"`
	MockSymbols int    `yaml:"mock_symbols"`
	MockDays    int    `yaml:"mock_days"`
	MockCNEvery int    `yaml:"mock_cn_every"`
	Seed        uint64 `yaml:"seed"`
}

// Alpaca holds credentials and endpoints for the Alpaca market data API.
type Alpaca struct {
	APIKey     string `yaml:"api_key"`
	APISecret  string `yaml:"api_secret"`
	DataURL    string `yaml:"data_url"`
	Feed       string `yaml:"feed"`
	MaxWorkers int    `yaml:"max_workers"`
}

// Enabled reports whether credentials are configured.
func (a Alpaca) Enabled() bool {
	return a.APIKey != "" && a.APISecret != ""
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DataDir:    "./data",
			SQLitePath: "./data/stockgrid.db",
		},
		Logging: Logging{
			Level:      "info",
			File:       "./data/stockgrid.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Grid: Grid{
			RowHeight:    1,
			HeaderHeight: 1,
			FrameMillis:  16,
		},
		Market: Market{
			Default:     "us",
			MockSymbols: 2000,
			MockDays:    500,
			MockCNEvery: 5,
			Seed:        1,
		},
		Alpaca: Alpaca{
			Feed:       "sip",
			MaxWorkers: 8,
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load starts from Default, overlays the YAML file at path when path is
// non-empty, then applies environment variable overrides and validates the
// result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFiles loads variables from .env files into the process
// environment without overriding variables that are already set. Missing
// files are not an error.
func LoadEnvFiles(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			slog.Debug("skipping env file", "path", p, "error", err)
		}
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if c.Grid.RowHeight <= 0 {
		errs = append(errs, fmt.Errorf("grid.row_height must be positive, got %d", c.Grid.RowHeight))
	}
	if c.Grid.HeaderHeight <= 0 {
		errs = append(errs, fmt.Errorf("grid.header_height must be positive, got %d", c.Grid.HeaderHeight))
	}
	if c.Grid.FrameMillis < 0 {
		errs = append(errs, fmt.Errorf("grid.frame_millis must not be negative, got %d", c.Grid.FrameMillis))
	}
	switch c.Market.Default {
	case "us", "cn":
	default:
		errs = append(errs, fmt.Errorf("market.default must be us or cn, got %q", c.Market.Default))
	}
	if c.Storage.DataDir == "" {
		errs = append(errs, errors.New("storage.data_dir is required"))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}

	if v := os.Getenv("GRID_ROW_HEIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Grid.RowHeight = n
		} else {
			slog.Warn("ignoring GRID_ROW_HEIGHT", "value", v, "error", err)
		}
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	// Standard Alpaca env vars (canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
