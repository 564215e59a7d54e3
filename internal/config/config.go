package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Loop      LoopConfig      `toml:"loop" envPrefix:"YAGA_LOOP_"`
	Assets    AssetsConfig    `toml:"assets"`
	Scripting ScriptingConfig `toml:"scripting" envPrefix:"YAGA_"`
	Input     InputConfig     `toml:"input" envPrefix:"YAGA_INPUT_"`
	Window    WindowConfig    `toml:"window" envPrefix:"YAGA_WINDOW_"`
	Logging   LoggingConfig   `toml:"logging" envPrefix:"YAGA_LOG_"`
}

type LoopConfig struct {
	PollInterval time.Duration `toml:"poll_interval" env:"POLL_INTERVAL"`
}

type AssetsConfig struct {
	DataPath   string   `toml:"data_path" env:"DATAPATH"`
	ArchiveExt string   `toml:"archive_ext"` // archives are zip files with this extension
	IndexDirs  []string `toml:"index_dirs"`  // searched case-insensitively
	MaxOpen    int      `toml:"max_open" env:"YAGA_MAX_OPEN"`
}

type ScriptingConfig struct {
	ScriptsDir string `toml:"scripts_dir" env:"SCRIPTS_DIR"`
}

type InputConfig struct {
	Feed string `toml:"feed" env:"FEED"` // YAML raw-event feed, empty for none
}

type WindowConfig struct {
	Title string `toml:"title" env:"TITLE"`
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"` // "json" or "console"
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Loop.PollInterval <= 0 {
		return fmt.Errorf("loop.poll_interval must be positive, got %s", c.Loop.PollInterval)
	}
	if c.Assets.MaxOpen <= 0 {
		return fmt.Errorf("assets.max_open must be positive, got %d", c.Assets.MaxOpen)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Loop: LoopConfig{
			PollInterval: 50 * time.Millisecond,
		},
		Assets: AssetsConfig{
			DataPath:   ".",
			ArchiveExt: "he",
			IndexDirs:  []string{"interface", "movies"},
			MaxOpen:    256,
		},
		Scripting: ScriptingConfig{
			ScriptsDir: "scripts",
		},
		Window: WindowConfig{
			Title: "yaga",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
