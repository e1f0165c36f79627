package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Defaults match the fixed layout the job has always used.
const (
	DefaultInputDir       = "files/input"
	DefaultOutputDir      = "files/output"
	DefaultArchivePattern = "*.csv.zip"
	DefaultYear           = 2022
)

// Global configuration structure.
type Global struct {
	InputDir       string `mapstructure:"input_dir" yaml:"input_dir"`
	OutputDir      string `mapstructure:"output_dir" yaml:"output_dir"`
	ArchivePattern string `mapstructure:"archive_pattern" yaml:"archive_pattern"`
	Year           int    `mapstructure:"year" yaml:"year"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Validate rejects values the pipeline cannot run with.
func (c *Global) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input_dir must not be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if _, err := filepath.Match(c.ArchivePattern, ""); err != nil {
		return fmt.Errorf("archive_pattern %q: %w", c.ArchivePattern, err)
	}
	if c.Year < 1 || c.Year > 9999 {
		return fmt.Errorf("year %d out of range 1..9999", c.Year)
	}
	return nil
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".campaign-etl"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.campaign-etl/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CAMPAIGN_ETL")
	v.AutomaticEnv()

	v.SetDefault("input_dir", DefaultInputDir)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("archive_pattern", DefaultArchivePattern)
	v.SetDefault("year", DefaultYear)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		if dir, err := defaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
