package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func write(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, FileName)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, `
[convert]
lenient = true
audience = ["AfterSales", "Development"]
include_job_files = "jobs"

[trace]
level = "detail"
file = "logs/trace.ndjson"
max_size_mb = 10

[cache]
enabled = true
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Default()
	want.Path = p
	want.Convert.Lenient = true
	want.Convert.Audience = []string{"AfterSales", "Development"}
	want.Convert.IncludeJobFiles = filepath.Join(dir, "jobs")
	want.Trace.Level = "detail"
	want.Trace.File = filepath.Join(dir, "logs", "trace.ndjson")
	want.Trace.MaxSizeMB = 10
	want.Cache.Enabled = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{name: "syntax", toml: "[convert\n", want: "failed to parse TOML"},
		{name: "unknown key", toml: "[convert]\ncolour = \"red\"\n", want: "unknown keys: convert.colour"},
		{name: "compression", toml: "[convert]\ncompression = \"brotli\"\n", want: "[convert].compression"},
		{name: "log level", toml: "[convert]\nlog_level = \"trace\"\n", want: "[convert].log_level"},
		{name: "trace level", toml: "[trace]\nlevel = \"loud\"\n", want: "[trace].level"},
		{name: "trace format", toml: "[trace]\nformat = \"chrome\"\n", want: "[trace].format"},
		{name: "jobs", toml: "[convert]\njobs = -1\n", want: "[convert].jobs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, t.TempDir(), tt.toml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	p := write(t, root, "[convert]\ncompression = \"zstd\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Discover(nested, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != p || cfg.Convert.Compression != "zstd" {
		t.Fatalf("discovered %q with compression %q", cfg.Path, cfg.Convert.Compression)
	}
}

func TestDiscoverExplicitPath(t *testing.T) {
	p := write(t, t.TempDir(), "[trace]\nfile = \"-\"\n")
	cfg, err := Discover("", p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Trace.File != "-" {
		t.Fatalf("trace.file = %q, want stderr marker kept", cfg.Trace.File)
	}
	if _, err := Discover("", filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("missing explicit config accepted")
	}
}

func TestEmptyCompressionMeansLZMA(t *testing.T) {
	tests := []struct {
		name, content, want string
	}{
		{"empty", "[convert]\ncompression = \"\"\n", "lzma"},
		{"none", "[convert]\ncompression = \"none\"\n", "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(write(t, t.TempDir(), tt.content))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.Convert.Compression != tt.want {
				t.Fatalf("compression = %q, want %q", cfg.Convert.Compression, tt.want)
			}
		})
	}
}
