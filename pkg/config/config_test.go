package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/panbanda/harnessprobe/pkg/ast"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.Frontend.Name != FrontendTreeSitter {
		t.Errorf("Frontend.Name = %s, want %s", cfg.Frontend.Name, FrontendTreeSitter)
	}
	if cfg.Frontend.MaxIncludeDepth != 16 {
		t.Errorf("Frontend.MaxIncludeDepth = %d, want 16", cfg.Frontend.MaxIncludeDepth)
	}
	if !reflect.DeepEqual(cfg.Classify.SizeTypes, []string{"size_t", "std::size_t", "unsigned long"}) {
		t.Errorf("Classify.SizeTypes = %v", cfg.Classify.SizeTypes)
	}
	if cfg.Harness.Entry != "main" || cfg.Harness.RunMethod != "run" {
		t.Errorf("Harness entry/run = %s/%s, want main/run", cfg.Harness.Entry, cfg.Harness.RunMethod)
	}
	if cfg.Harness.Markers.TestFunctions != "TestFunctions" {
		t.Errorf("Harness.Markers.TestFunctions = %s", cfg.Harness.Markers.TestFunctions)
	}
	if len(cfg.Harness.DataWrappers) != 4 {
		t.Errorf("Harness.DataWrappers = %v, want 4 wrappers", cfg.Harness.DataWrappers)
	}
	if cfg.Types.Spelling != "canonical" {
		t.Errorf("Types.Spelling = %s, want canonical", cfg.Types.Spelling)
	}
	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be true by default")
	}
	if cfg.Cache.TTL != 24 {
		t.Errorf("Cache.TTL = %d, want 24", cfg.Cache.TTL)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %s, want json", cfg.Output.Format)
	}
	if cfg.Jobs != 1 {
		t.Errorf("Jobs = %d, want 1", cfg.Jobs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "harnessprobe.toml")

	content := `
jobs = 4

[frontend]
name = "clang"
include_dirs = ["include", "third_party"]

[classify]
image_markers = ["RGBImage", "GrayImage"]

[harness.markers]
test_functions = "Runner"

[types]
spelling = "written"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Jobs != 4 {
		t.Errorf("Jobs = %d, want 4", cfg.Jobs)
	}
	if cfg.Frontend.Name != FrontendClang {
		t.Errorf("Frontend.Name = %s, want clang", cfg.Frontend.Name)
	}
	if !reflect.DeepEqual(cfg.Frontend.IncludeDirs, []string{"include", "third_party"}) {
		t.Errorf("Frontend.IncludeDirs = %v", cfg.Frontend.IncludeDirs)
	}
	if cfg.Frontend.Clang != "clang" {
		t.Errorf("Frontend.Clang should keep its default, got %q", cfg.Frontend.Clang)
	}
	if got := cfg.ClassifyRules().ImageMarkers; !reflect.DeepEqual(got, []string{"RGBImage", "GrayImage"}) {
		t.Errorf("ImageMarkers = %v", got)
	}

	rules := cfg.HarnessRules()
	if rules.Markers.TestFunctions != "Runner" {
		t.Errorf("Markers.TestFunctions = %s, want Runner", rules.Markers.TestFunctions)
	}
	if rules.Markers.DataManager != "DataManager" {
		t.Errorf("Markers.DataManager should keep its default, got %s", rules.Markers.DataManager)
	}
	if cfg.Spelling() != ast.SpellingWritten {
		t.Errorf("Spelling() = %s, want written", cfg.Spelling())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "harnessprobe.yaml")

	content := `
output:
  format: yaml
  color: false
harness:
  data_wrappers:
    - DataArray
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Output.Format != "yaml" {
		t.Errorf("Output.Format = %s, want yaml", cfg.Output.Format)
	}
	if cfg.Output.Color {
		t.Error("Output.Color should be false")
	}
	if !reflect.DeepEqual(cfg.Harness.DataWrappers, []string{"DataArray"}) {
		t.Errorf("Harness.DataWrappers = %v", cfg.Harness.DataWrappers)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "harnessprobe.json")

	content := `{"cache": {"enabled": false, "ttl": 1}, "frontend": {"allow_syntax_errors": true}}`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be false")
	}
	if cfg.Cache.TTL != 1 {
		t.Errorf("Cache.TTL = %d, want 1", cfg.Cache.TTL)
	}
	if !cfg.Frontend.AllowSyntaxErrors {
		t.Error("Frontend.AllowSyntaxErrors should be true")
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/harnessprobe.toml")
	if err == nil {
		t.Error("Load() should return error for non-existent file")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "harnessprobe.toml")

	if err := os.WriteFile(configPath, []byte("this is [not valid toml"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() should return error for invalid config")
	}
}

func TestFind(t *testing.T) {
	tmpDir := t.TempDir()

	if _, ok := Find(tmpDir); ok {
		t.Fatal("Find() should report no config in an empty directory")
	}

	nested := filepath.Join(tmpDir, ".harnessprobe")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "harnessprobe.yaml"), []byte("jobs: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	path, ok := Find(tmpDir)
	if !ok || path != filepath.Join(nested, "harnessprobe.yaml") {
		t.Errorf("Find() = %q, %v", path, ok)
	}

	// A config in the directory itself wins over the nested one.
	if err := os.WriteFile(filepath.Join(tmpDir, ".harnessprobe.toml"), []byte("jobs = 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	path, _ = Find(tmpDir)
	if path != filepath.Join(tmpDir, ".harnessprobe.toml") {
		t.Errorf("Find() = %q, want the top-level file", path)
	}
}

func TestLoadOrDefault(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	cfg, path, err := LoadOrDefault()
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if path != "" {
		t.Errorf("LoadOrDefault() path = %q, want empty", path)
	}
	if cfg.Jobs != 1 {
		t.Errorf("LoadOrDefault() returned non-default Jobs: %d", cfg.Jobs)
	}
}

func TestLoadOrDefaultWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	if err := os.WriteFile(filepath.Join(tmpDir, "harnessprobe.toml"), []byte("jobs = 8\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	cfg, path, err := LoadOrDefault()
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if filepath.Base(path) != "harnessprobe.toml" {
		t.Errorf("LoadOrDefault() path = %q", path)
	}
	if cfg.Jobs != 8 {
		t.Errorf("LoadOrDefault() should load from file, got Jobs=%d", cfg.Jobs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"frontend", func(c *Config) { c.Frontend.Name = "gcc" }, "frontend.name"},
		{"spelling", func(c *Config) { c.Types.Spelling = "sugared" }, "types.spelling"},
		{"format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"jobs", func(c *Config) { c.Jobs = -1 }, "jobs"},
		{"entry", func(c *Config) { c.Harness.Entry = "" }, "harness.entry"},
		{"size types", func(c *Config) { c.Classify.SizeTypes = nil }, "classify.size_types"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"pattern", func(c *Config) { c.Exclude.Patterns = []string{"[abc"} }, "exclude.patterns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Frontend.Name = "gcc"
	cfg.Jobs = -2
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	if !strings.Contains(err.Error(), "frontend.name") || !strings.Contains(err.Error(), "jobs") {
		t.Errorf("Validate() = %v, want both problems", err)
	}
}

func TestTOML(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Jobs = 6

	data, err := cfg.TOML()
	if err != nil {
		t.Fatalf("TOML() error = %v", err)
	}
	out := string(data)
	for _, want := range []string{"jobs = 6", "[frontend]", "[harness.markers]", "test_functions = \"TestFunctions\"", "spelling = \"canonical\""} {
		if !strings.Contains(out, want) {
			t.Errorf("TOML() missing %q in:\n%s", want, out)
		}
	}

	path := filepath.Join(t.TempDir(), "roundtrip.toml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of rendered config error = %v", err)
	}
	if loaded.Jobs != 6 || loaded.Harness.Markers.TestFunctions != "TestFunctions" {
		t.Errorf("rendered config did not load back: %+v", loaded)
	}
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude.Patterns = []string{"*.pb.cc", "generated/**"}

	tests := []struct {
		path string
		want bool
	}{
		{"vendor/lib/a.cpp", true},
		{"src/build/gen.cpp", true},
		{".git/objects/file", true},
		{"api.pb.cc", true},
		{"src/api.pb.cc", true},
		{"generated/deep/x.cpp", true},

		{"src/main.cpp", false},
		{"include/harness.h", false},
		{"builder/main.cpp", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := cfg.ShouldExclude(tt.path); got != tt.want {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
