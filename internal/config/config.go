package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Norgate-AV/pdmake/internal/codes"
)

// Default tool settings
const (
	DefaultVerbose      = false
	DefaultJobs         = 1
	DefaultCacheBackend = "file"
)

// Holds the configuration options for pdmake
type Config struct {
	// The project document, with default directories applied
	Project

	// Path of the project document
	ProjectFile string

	// Directory containing the project document; project paths are relative to it
	Root string

	// Enable verbose output
	Verbose bool

	// Number of files processed concurrently
	Jobs int

	// Cache store backend ("file" or "bolt")
	CacheBackend string

	// Explicit tool locations; empty means search
	Tools Tools
}

// Tools holds executable overrides
type Tools struct {
	Aseprite  string
	Pdc       string
	StyLua    string
	Simulator string

	// Playdate SDK root, searched for pdc and the simulator
	SDK string
}

// Load reads the project document at projectFile and merges the tool settings from viper
func Load(projectFile string) (*Config, error) {
	project, err := ReadProject(projectFile)
	if err != nil {
		return nil, codes.Config(err, "invalid project document")
	}

	cfg := &Config{
		Project:      *project,
		ProjectFile:  projectFile,
		Root:         filepath.Dir(projectFile),
		Verbose:      viper.GetBool("verbose"),
		Jobs:         viper.GetInt("jobs"),
		CacheBackend: viper.GetString("cache_backend"),
		Tools: Tools{
			Aseprite:  viper.GetString("aseprite_path"),
			Pdc:       viper.GetString("pdc_path"),
			StyLua:    viper.GetString("stylua_path"),
			Simulator: viper.GetString("simulator_path"),
			SDK:       viper.GetString("sdk_path"),
		},
	}

	// Tool setting beats the project document
	if cfg.Tools.Aseprite == "" {
		cfg.Tools.Aseprite = project.Build.AsepritePath
	}

	if cfg.Jobs < 1 {
		cfg.Jobs = DefaultJobs
	}

	if cfg.CacheBackend == "" {
		cfg.CacheBackend = DefaultCacheBackend
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var missing []string
	for _, f := range []struct {
		key   string
		value string
	}{
		{"name", c.Name},
		{"author", c.Author},
		{"description", c.Description},
		{"bundle_id", c.BundleID},
		{"version", c.Version},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.key)
		}
	}

	if len(missing) > 0 {
		return codes.Config(nil, "missing required field(s): %s", strings.Join(missing, ", "))
	}

	if strings.ContainsAny(c.BundleID, `/\`) {
		return codes.Config(nil, "invalid bundle_id %q", c.BundleID)
	}

	switch c.CacheBackend {
	case "file", "bolt":
	default:
		return codes.Config(nil, "invalid cache backend: %s", c.CacheBackend)
	}

	if c.Root != "" {
		abs, err := filepath.Abs(c.Root)
		if err != nil {
			return codes.Config(err, "invalid project root")
		}

		c.Root = abs
	}

	return nil
}

// SourceDir returns the absolute source root
func (c *Config) SourceDir() string {
	return c.resolve(c.Build.Directories.Src)
}

// AssetsDir returns the absolute assets root
func (c *Config) AssetsDir() string {
	return c.resolve(c.Build.Directories.Assets)
}

// TargetDir returns the absolute build output directory
func (c *Config) TargetDir() string {
	return c.resolve(c.Build.Directories.Target)
}

// BundlePath returns the location of the packaged bundle
func (c *Config) BundlePath() string {
	return filepath.Join(c.TargetDir(), fmt.Sprintf("%s.pdx", c.BundleID))
}

func (c *Config) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}

	return filepath.Join(c.Root, dir)
}
