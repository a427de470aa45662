package config_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/derickschaefer/fauna/internal/config"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// chdir changes the working directory to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

// writeConfig writes a config.json into dir and changes the working directory
// to dir for the duration of the test.
func writeConfig(t *testing.T, dir string, f config.File) {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)
}

// clearEnv unsets the FAUNA_* variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvSource, "")
	t.Setenv(config.EnvDBPath, "")
	t.Setenv(config.EnvS3Endpoint, "")
}

// ─── Defaults ─────────────────────────────────────────────────────────────────

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Format != config.DefaultFormat {
		t.Errorf("Format = %q", cfg.Format)
	}
	if cfg.Timeout != config.DefaultTimeout || cfg.Rate != config.DefaultRate {
		t.Errorf("Timeout/Rate = %v/%v", cfg.Timeout, cfg.Rate)
	}
	if cfg.MinWidth != 600 || cfg.MinHeight != 400 {
		t.Errorf("minimum = %vx%v, want 600x400", cfg.MinWidth, cfg.MinHeight)
	}
	if cfg.Width != 800 || cfg.Height != 500 {
		t.Errorf("size = %vx%v, want 800x500", cfg.Width, cfg.Height)
	}
	if !strings.HasSuffix(cfg.DBPath, filepath.Join(".fauna", "fauna.db")) {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty", cfg.ConfigPath)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}
}

// ─── File layer ───────────────────────────────────────────────────────────────

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, config.File{
		Source:        "zoo.csv",
		DefaultFormat: "json",
		Timeout:       "5s",
		Rate:          1.5,
		Width:         1024,
		Height:        768,
		DBPath:        "/tmp/fauna-test.db",
		ListenAddr:    ":9090",
		S3Region:      "eu-west-1",
		S3Endpoint:    "http://minio:9000",
		S3PathStyle:   true,
	})

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != "zoo.csv" || cfg.Format != "json" || cfg.Timeout != 5*time.Second || cfg.Rate != 1.5 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Width != 1024 || cfg.Height != 768 {
		t.Errorf("size = %vx%v", cfg.Width, cfg.Height)
	}
	if cfg.DBPath != "/tmp/fauna-test.db" || cfg.ListenAddr != ":9090" {
		t.Errorf("DBPath/ListenAddr = %q/%q", cfg.DBPath, cfg.ListenAddr)
	}
	if cfg.S3Region != "eu-west-1" || cfg.S3Endpoint != "http://minio:9000" || !cfg.S3PathStyle {
		t.Errorf("s3 = %q %q %v", cfg.S3Region, cfg.S3Endpoint, cfg.S3PathStyle)
	}
	if cfg.ConfigPath != filepath.Join(dir, "config.json") {
		// macOS TempDir may be symlinked; compare base names there.
		if filepath.Base(cfg.ConfigPath) != "config.json" {
			t.Errorf("ConfigPath = %q", cfg.ConfigPath)
		}
	}
}

func TestLoadInvalidTimeoutIgnored(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{Timeout: "soon"})
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout != config.DefaultTimeout {
		t.Errorf("Timeout = %v, want default", cfg.Timeout)
	}
}

func TestLoadMalformedFileIsAnError(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	if _, err := config.Load(""); err == nil {
		t.Error("expected an error for malformed config.json")
	}
}

// ─── Precedence ───────────────────────────────────────────────────────────────

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{Source: "file.csv", DBPath: "/file.db", S3Endpoint: "http://file"})
	t.Setenv(config.EnvSource, "env.csv")
	t.Setenv(config.EnvDBPath, "/env.db")
	t.Setenv(config.EnvS3Endpoint, "http://env")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != "env.csv" || cfg.DBPath != "/env.db" || cfg.S3Endpoint != "http://env" {
		t.Errorf("env did not win: %q %q %q", cfg.Source, cfg.DBPath, cfg.S3Endpoint)
	}
}

func TestLoadFlagOverridesEnvAndFile(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{Source: "file.csv"})
	t.Setenv(config.EnvSource, "env.csv")

	cfg, err := config.Load("flag.csv")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != "flag.csv" {
		t.Errorf("Source = %q, want flag.csv", cfg.Source)
	}
}

// ─── Validation ───────────────────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	bad := *cfg
	bad.Timeout = 0
	if bad.Validate() == nil {
		t.Error("zero timeout should not validate")
	}
	bad = *cfg
	bad.MinWidth = -1
	if bad.Validate() == nil {
		t.Error("negative minimum width should not validate")
	}
}

func TestRequireSource(t *testing.T) {
	cfg := &config.Config{}
	err := cfg.RequireSource()
	if !errors.Is(err, config.ErrNoSource) {
		t.Fatalf("RequireSource = %v, want ErrNoSource", err)
	}
	if !strings.Contains(err.Error(), "FAUNA_SOURCE") {
		t.Error("error should explain how to set the source")
	}
	cfg.Source = "zoo.csv"
	if cfg.RequireSource() != nil {
		t.Error("source set, RequireSource should pass")
	}
}

// ─── Template / WriteFile ─────────────────────────────────────────────────────

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	tmpl := config.Template()
	tmpl.Source = "zoo.csv"
	if err := config.WriteFile(path, tmpl); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got config.File
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("written file is not valid JSON: %v", err)
	}
	if got != tmpl {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tmpl)
	}
}

func TestWriteFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := config.WriteFile(path, config.Template()); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
}

func TestTemplateDefaults(t *testing.T) {
	tmpl := config.Template()
	if tmpl.Timeout != "30s" || tmpl.DefaultFormat != "table" {
		t.Errorf("template = %+v", tmpl)
	}
	if tmpl.MinWidth != 600 || tmpl.MinHeight != 400 {
		t.Errorf("template minimum = %vx%v", tmpl.MinWidth, tmpl.MinHeight)
	}
}
