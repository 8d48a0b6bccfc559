package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml"

	"github.com/panbanda/harnessprobe/pkg/analyzer/classify"
	"github.com/panbanda/harnessprobe/pkg/analyzer/harness"
	"github.com/panbanda/harnessprobe/pkg/ast"
)

// Front-end names.
const (
	FrontendTreeSitter = "treesitter"
	FrontendClang      = "clang"
)

// Formats lists the accepted output formats.
var Formats = []string{"json", "yaml", "toon", "text", "markdown"}

// Config holds all configuration options for harnessprobe.
type Config struct {
	Frontend FrontendConfig `koanf:"frontend" toml:"frontend"`
	Classify ClassifyConfig `koanf:"classify" toml:"classify"`
	Harness  HarnessConfig  `koanf:"harness" toml:"harness"`
	Types    TypesConfig    `koanf:"types" toml:"types"`
	Exclude  ExcludeConfig  `koanf:"exclude" toml:"exclude"`
	Cache    CacheConfig    `koanf:"cache" toml:"cache"`
	Output   OutputConfig   `koanf:"output" toml:"output"`
	Log      LogConfig      `koanf:"log" toml:"log"`

	// Jobs is the number of files extracted concurrently; 0 means twice the
	// CPU count.
	Jobs int `koanf:"jobs" toml:"jobs"`
}

// FrontendConfig selects and tunes the front-end that builds translation units.
type FrontendConfig struct {
	Name              string   `koanf:"name" toml:"name"`
	Clang             string   `koanf:"clang" toml:"clang"`
	Args              []string `koanf:"args" toml:"args"`
	CompDB            string   `koanf:"compdb" toml:"compdb"`
	IncludeDirs       []string `koanf:"include_dirs" toml:"include_dirs"`
	SystemPrefixes    []string `koanf:"system_prefixes" toml:"system_prefixes"`
	AllowSyntaxErrors bool     `koanf:"allow_syntax_errors" toml:"allow_syntax_errors"`
	MaxIncludeDepth   int      `koanf:"max_include_depth" toml:"max_include_depth"`
}

// ClassifyConfig holds the type spellings the function classifier matches.
type ClassifyConfig struct {
	SizeTypes    []string `koanf:"size_types" toml:"size_types"`
	ImageMarkers []string `koanf:"image_markers" toml:"image_markers"`
	CharTypes    []string `koanf:"char_types" toml:"char_types"`
}

// HarnessConfig describes the shape of a ready test driver.
type HarnessConfig struct {
	Entry        string        `koanf:"entry" toml:"entry"`
	RunMethod    string        `koanf:"run_method" toml:"run_method"`
	Markers      MarkersConfig `koanf:"markers" toml:"markers"`
	DataWrappers []string      `koanf:"data_wrappers" toml:"data_wrappers"`
}

// MarkersConfig names the four collaborator classes.
type MarkersConfig struct {
	TestOptions     string `koanf:"test_options" toml:"test_options"`
	FunctionManager string `koanf:"function_manager" toml:"function_manager"`
	DataManager     string `koanf:"data_manager" toml:"data_manager"`
	TestFunctions   string `koanf:"test_functions" toml:"test_functions"`
}

// TypesConfig controls type rendering.
type TypesConfig struct {
	Spelling string `koanf:"spelling" toml:"spelling"` // canonical, written
}

// ExcludeConfig defines source exclusion rules for directory scans.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"`
	Color  bool   `koanf:"color" toml:"color"`
}

// LogConfig controls diagnostics on stderr.
type LogConfig struct {
	Level string `koanf:"level" toml:"level"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	cr := classify.DefaultRules()
	hr := harness.DefaultRules()
	return &Config{
		Frontend: FrontendConfig{
			Name:            FrontendTreeSitter,
			Clang:           "clang",
			Args:            []string{},
			IncludeDirs:     []string{},
			SystemPrefixes:  []string{"/usr/include", "/usr/lib", "/usr/local/include", "/Library/Developer", "/Applications/Xcode.app"},
			MaxIncludeDepth: 16,
		},
		Classify: ClassifyConfig{
			SizeTypes:    cr.SizeTypes,
			ImageMarkers: cr.ImageMarkers,
			CharTypes:    cr.CharTypes,
		},
		Harness: HarnessConfig{
			Entry:     hr.Entry,
			RunMethod: hr.RunMethod,
			Markers: MarkersConfig{
				TestOptions:     hr.Markers.TestOptions,
				FunctionManager: hr.Markers.FunctionManager,
				DataManager:     hr.Markers.DataManager,
				TestFunctions:   hr.Markers.TestFunctions,
			},
			DataWrappers: hr.DataWrappers,
		},
		Types: TypesConfig{
			Spelling: string(ast.SpellingCanonical),
		},
		Exclude: ExcludeConfig{
			Patterns: []string{},
			Dirs: []string{
				".git",
				".harnessprobe",
				"build",
				"node_modules",
				"vendor",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".harnessprobe/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "json",
			Color:  true,
		},
		Log: LogConfig{
			Level: "warn",
		},
		Jobs: 1,
	}
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

var configNames = []string{
	"harnessprobe.toml",
	"harnessprobe.yaml",
	"harnessprobe.yml",
	"harnessprobe.json",
	".harnessprobe.toml",
	".harnessprobe.yaml",
	".harnessprobe.yml",
	".harnessprobe.json",
}

// Find returns the first config file in the standard locations under dir.
func Find(dir string) (string, bool) {
	for _, sub := range []string{".", ".harnessprobe"} {
		for _, name := range configNames {
			path := filepath.Join(dir, sub, name)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				return path, true
			}
		}
	}
	return "", false
}

// LoadOrDefault loads the first config found in the current directory, or
// returns defaults. The returned path is empty when defaults are used.
func LoadOrDefault() (*Config, string, error) {
	path, ok := Find(".")
	if !ok {
		return DefaultConfig(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.Frontend.Name {
	case FrontendTreeSitter, FrontendClang:
	default:
		errs = append(errs, fmt.Errorf("frontend.name: unknown front-end %q", c.Frontend.Name))
	}
	if c.Frontend.MaxIncludeDepth < 0 {
		errs = append(errs, errors.New("frontend.max_include_depth: must not be negative"))
	}
	if len(c.Classify.SizeTypes) == 0 {
		errs = append(errs, errors.New("classify.size_types: at least one spelling is required"))
	}
	if c.Harness.Entry == "" {
		errs = append(errs, errors.New("harness.entry: must not be empty"))
	}
	if c.Harness.RunMethod == "" {
		errs = append(errs, errors.New("harness.run_method: must not be empty"))
	}
	if _, err := ast.ParseSpellingMode(c.Types.Spelling); err != nil {
		errs = append(errs, fmt.Errorf("types.spelling: %w", err))
	}
	if !validFormat(c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format: unknown format %q (want one of %s)", c.Output.Format, strings.Join(Formats, ", ")))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl: must not be negative"))
	}
	if c.Jobs < 0 {
		errs = append(errs, errors.New("jobs: must not be negative"))
	}
	for _, p := range c.Exclude.Patterns {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("exclude.patterns: invalid pattern %q", p))
		}
	}
	return errors.Join(errs...)
}

func validFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// ClassifyRules converts the classify section.
func (c *Config) ClassifyRules() classify.Rules {
	return classify.Rules{
		SizeTypes:    c.Classify.SizeTypes,
		ImageMarkers: c.Classify.ImageMarkers,
		CharTypes:    c.Classify.CharTypes,
	}
}

// HarnessRules converts the harness section.
func (c *Config) HarnessRules() harness.Rules {
	return harness.Rules{
		Entry:     c.Harness.Entry,
		RunMethod: c.Harness.RunMethod,
		Markers: harness.Markers{
			TestOptions:     c.Harness.Markers.TestOptions,
			FunctionManager: c.Harness.Markers.FunctionManager,
			DataManager:     c.Harness.Markers.DataManager,
			TestFunctions:   c.Harness.Markers.TestFunctions,
		},
		DataWrappers: c.Harness.DataWrappers,
	}
}

// Spelling returns the configured spelling mode, canonical when unset or
// invalid.
func (c *Config) Spelling() ast.SpellingMode {
	mode, err := ast.ParseSpellingMode(c.Types.Spelling)
	if err != nil {
		return ast.SpellingCanonical
	}
	return mode
}

// TOML renders the effective configuration.
func (c *Config) TOML() ([]byte, error) {
	return gotoml.Marshal(*c)
}

// ShouldExclude checks if a path should be skipped by a directory scan.
func (c *Config) ShouldExclude(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains("/"+slashed, "/"+dir+"/") {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}
	return false
}
