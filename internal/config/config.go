package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/hujson"
	"go.uber.org/zap/zapcore"

	"github.com/Iki-leo/emoji-mood-tracker/internal/store"
)

// Storage kinds
const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
	StorageMemory = "memory"
)

// DBFileName is the sqlite database inside the data directory
const DBFileName = "mood.db"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config")
	errUnknownStorage     = errors.New("unknown storage kind")
	errDataDirEmpty       = errors.New("data_dir cannot be empty")
	errSlotEmpty          = errors.New("slot cannot be empty")
)

// Config holds all configuration options.
type Config struct {
	Storage  string `json:"storage"`
	DataDir  string `json:"data_dir"`
	Slot     string `json:"slot"`
	Addr     string `json:"addr"`
	Timezone string `json:"timezone,omitempty"`
	LogLevel string `json:"log_level,omitempty"`

	// Sources lists the config files that were applied, lowest precedence first
	Sources []string `json:"-"`
}

// Default returns the configuration used when no file sets anything.
// home may be empty, in which case the journal lives in the working directory.
func Default(home string) Config {
	return Config{
		Storage:  StorageSQLite,
		DataDir:  filepath.Join(home, ".mood"),
		Slot:     store.DefaultSlotName,
		Addr:     "127.0.0.1:8080",
		LogLevel: "info",
	}
}

// Overrides are values set on the command line; empty means unset
type Overrides struct {
	Storage string
	DataDir string
	Slot    string
	Addr    string
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	ConfigPath string            // --config flag value
	Overrides  Overrides         // CLI flags
	Env        map[string]string // environment variables
}

// Load resolves configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/mood/config.json or ~/.config/mood/config.json)
// 3. Explicit config file via ConfigPath (must exist)
// 4. CLI overrides.
func Load(input LoadInput) (Config, error) {
	cfg := Default(input.Env["HOME"])

	if global := globalPath(input.Env); global != "" {
		fileCfg, loaded, err := loadFile(global, false)
		if err != nil {
			return Config{}, err
		}
		if loaded {
			cfg = merge(cfg, fileCfg)
			cfg.Sources = append(cfg.Sources, global)
		}
	}

	if input.ConfigPath != "" {
		fileCfg, _, err := loadFile(input.ConfigPath, true)
		if err != nil {
			return Config{}, err
		}
		cfg = merge(cfg, fileCfg)
		cfg.Sources = append(cfg.Sources, input.ConfigPath)
	}

	cfg = merge(cfg, Config{
		Storage: input.Overrides.Storage,
		DataDir: input.Overrides.DataDir,
		Slot:    input.Overrides.Slot,
		Addr:    input.Overrides.Addr,
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration can open a journal
func (c Config) Validate() error {
	switch c.Storage {
	case StorageSQLite, StorageFile:
		if c.DataDir == "" {
			return fmt.Errorf("%w: %w", errConfigInvalid, errDataDirEmpty)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("%w: %w %q", errConfigInvalid, errUnknownStorage, c.Storage)
	}
	if c.Slot == "" {
		return fmt.Errorf("%w: %w", errConfigInvalid, errSlotEmpty)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: %w", errConfigInvalid, err)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", errConfigInvalid, err)
	}
	return nil
}

// Location is the time zone that decides which calendar day "today" is
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// OpenSlot opens the storage slot the configuration points at
func (c Config) OpenSlot() (store.Slot, error) {
	switch c.Storage {
	case StorageSQLite:
		if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		return store.NewSQLiteSlot(filepath.Join(c.DataDir, DBFileName), c.Slot)
	case StorageFile:
		return store.NewFileSlot(c.DataDir, c.Slot), nil
	case StorageMemory:
		return store.NewMemorySlot(c.Slot, nil), nil
	}
	return nil, fmt.Errorf("%w %q", errUnknownStorage, c.Storage)
}

// Format returns the config as indented JSON
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}
	return string(data), nil
}

func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "mood", "config.json")
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "mood", "config.json")
	}
	return ""
}

func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Config{}, false, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
			}
			return Config{}, false, nil
		}
		return Config{}, false, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return cfg, true, nil
}

func parse(data []byte) (Config, error) {
	// JSONC -> JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.Storage != "" {
		base.Storage = overlay.Storage
	}
	if overlay.DataDir != "" {
		base.DataDir = overlay.DataDir
	}
	if overlay.Slot != "" {
		base.Slot = overlay.Slot
	}
	if overlay.Addr != "" {
		base.Addr = overlay.Addr
	}
	if overlay.Timezone != "" {
		base.Timezone = overlay.Timezone
	}
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}
	return base
}
