// Package config loads diagconv.toml, the optional project file that holds
// defaults for the command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"diagconv/internal/convert"
	"diagconv/internal/mdd"
	"diagconv/internal/trace"
)

const FileName = "diagconv.toml"

type Config struct {
	// Path is the file the config came from, empty for defaults.
	Path    string        `toml:"-"`
	Convert ConvertConfig `toml:"convert"`
	Trace   TraceConfig   `toml:"trace"`
	Cache   CacheConfig   `toml:"cache"`
}

type ConvertConfig struct {
	Compression     string   `toml:"compression"`
	SignContainer   bool     `toml:"sign_container"`
	Lenient         bool     `toml:"lenient"`
	Audience        []string `toml:"audience"`
	Jobs            int      `toml:"jobs"`
	IncludeJobFiles string   `toml:"include_job_files"`
	LogLevel        string   `toml:"log_level"`
}

type TraceConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default is the configuration used when no file is found.
func Default() Config {
	return Config{
		Convert: ConvertConfig{Compression: mdd.CompressionLZMA, LogLevel: "off"},
		Trace:   TraceConfig{Level: "off", Format: "text", MaxBackups: 3, MaxAgeDays: 28},
	}
}

// Find walks up from startDir looking for diagconv.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Discover loads explicit when given, otherwise the nearest diagconv.toml
// above startDir, otherwise the defaults.
func Discover(startDir, explicit string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes path. Keys that are absent keep their defaults; unknown keys
// and invalid values are errors. Relative paths are taken relative to the
// file's directory.
func Load(path string) (Config, error) {
	cfg := Config{}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	def := Default()
	if cfg.Convert.Compression == "" {
		cfg.Convert.Compression = def.Convert.Compression
	}
	if !meta.IsDefined("convert", "log_level") {
		cfg.Convert.LogLevel = def.Convert.LogLevel
	}
	if !meta.IsDefined("trace", "level") {
		cfg.Trace.Level = def.Trace.Level
	}
	if !meta.IsDefined("trace", "format") {
		cfg.Trace.Format = def.Trace.Format
	}
	if !meta.IsDefined("trace", "max_backups") {
		cfg.Trace.MaxBackups = def.Trace.MaxBackups
	}
	if !meta.IsDefined("trace", "max_age_days") {
		cfg.Trace.MaxAgeDays = def.Trace.MaxAgeDays
	}

	base := filepath.Dir(path)
	cfg.Convert.IncludeJobFiles = relativeTo(base, cfg.Convert.IncludeJobFiles)
	cfg.Trace.File = relativeTo(base, cfg.Trace.File)
	cfg.Cache.Dir = relativeTo(base, cfg.Cache.Dir)
	cfg.Path = path

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := mdd.NormalizeCompression(c.Convert.Compression); err != nil {
		return fmt.Errorf("[convert].compression: %w", err)
	}
	if _, err := convert.ParseLogLevel(c.Convert.LogLevel); err != nil {
		return fmt.Errorf("[convert].log_level: %w", err)
	}
	if c.Convert.Jobs < 0 {
		return errors.New("[convert].jobs must not be negative")
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		return fmt.Errorf("[trace].format: %w", err)
	}
	if c.Trace.MaxSizeMB < 0 || c.Trace.MaxBackups < 0 || c.Trace.MaxAgeDays < 0 {
		return errors.New("[trace] rotation limits must not be negative")
	}
	return nil
}

// "-" stays stderr for trace.file.
func relativeTo(base, p string) string {
	if p == "" || p == "-" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, filepath.FromSlash(p))
}
