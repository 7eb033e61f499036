package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/pdmake/internal/codes"
)

const exampleProject = `
name = "PDMake Example"
author = "John Playdate"
description = "Example pdmake project"
bundle_id = "com.pdmake.Example"
version = "1.0"
`

func writeProject(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "pdmake.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseProject(t *testing.T) {
	p, err := ParseProject([]byte(exampleProject + `
[build]
aseprite_path = "/opt/aseprite/aseprite"

[build.directories]
src = "alt_source"
assets = "alt_assets"
target = "alt_target"

[build.environment]
PLAYDATE_LOG = "1"

[dependencies]
toybox = "github.com/example/toybox"
`))
	require.NoError(t, err)

	assert.Equal(t, "PDMake Example", p.Name)
	assert.Equal(t, "John Playdate", p.Author)
	assert.Equal(t, "Example pdmake project", p.Description)
	assert.Equal(t, "com.pdmake.Example", p.BundleID)
	assert.Equal(t, "1.0", p.Version)
	assert.Equal(t, "alt_source", p.Build.Directories.Src)
	assert.Equal(t, "alt_assets", p.Build.Directories.Assets)
	assert.Equal(t, "alt_target", p.Build.Directories.Target)
	assert.Equal(t, "/opt/aseprite/aseprite", p.Build.AsepritePath)
	assert.Equal(t, map[string]string{"PLAYDATE_LOG": "1"}, p.Build.Environment)
	assert.Equal(t, map[string]string{"toybox": "github.com/example/toybox"}, p.Dependencies)
}

func TestParseProject_Defaults(t *testing.T) {
	p, err := ParseProject([]byte(exampleProject))
	require.NoError(t, err)

	assert.Equal(t, DefaultSrcDir, p.Build.Directories.Src)
	assert.Equal(t, DefaultAssetsDir, p.Build.Directories.Assets)
	assert.Equal(t, DefaultTargetDir, p.Build.Directories.Target)
	assert.Empty(t, p.Build.AsepritePath)
	assert.Nil(t, p.Dependencies)
}

func TestParseProject_Malformed(t *testing.T) {
	_, err := ParseProject([]byte(`name = "unterminated`))
	assert.Error(t, err)

	_, err = ParseProject([]byte(`name = 42`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		project     string
		setupViper  func()
		wantErr     bool
		errContains string
		check       func(*testing.T, *Config)
	}{
		{
			name:    "load with all defaults",
			project: exampleProject,
			setupViper: func() {
				viper.Reset()
				viper.SetDefault("jobs", DefaultJobs)
				viper.SetDefault("cache_backend", DefaultCacheBackend)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "com.pdmake.Example", cfg.BundleID)
				assert.Equal(t, DefaultJobs, cfg.Jobs)
				assert.Equal(t, DefaultCacheBackend, cfg.CacheBackend)
				assert.False(t, cfg.Verbose)
				assert.True(t, filepath.IsAbs(cfg.Root))
				assert.Equal(t, filepath.Join(cfg.Root, "src"), cfg.SourceDir())
				assert.Equal(t, filepath.Join(cfg.Root, "assets"), cfg.AssetsDir())
				assert.Equal(t, filepath.Join(cfg.Root, "target"), cfg.TargetDir())
				assert.Equal(t, filepath.Join(cfg.Root, "target", "com.pdmake.Example.pdx"), cfg.BundlePath())
			},
		},
		{
			name:    "load with custom tool settings",
			project: exampleProject,
			setupViper: func() {
				viper.Reset()
				viper.Set("verbose", true)
				viper.Set("jobs", 4)
				viper.Set("cache_backend", "bolt")
				viper.Set("pdc_path", "/sdk/bin/pdc")
				viper.Set("stylua_path", "/usr/bin/stylua")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Verbose)
				assert.Equal(t, 4, cfg.Jobs)
				assert.Equal(t, "bolt", cfg.CacheBackend)
				assert.Equal(t, "/sdk/bin/pdc", cfg.Tools.Pdc)
				assert.Equal(t, "/usr/bin/stylua", cfg.Tools.StyLua)
			},
		},
		{
			name:    "aseprite path from project document",
			project: exampleProject + "\n[build]\naseprite_path = \"/doc/aseprite\"\n",
			setupViper: func() {
				viper.Reset()
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/doc/aseprite", cfg.Tools.Aseprite)
			},
		},
		{
			name:    "aseprite tool setting overrides project document",
			project: exampleProject + "\n[build]\naseprite_path = \"/doc/aseprite\"\n",
			setupViper: func() {
				viper.Reset()
				viper.Set("aseprite_path", "/flag/aseprite")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/flag/aseprite", cfg.Tools.Aseprite)
			},
		},
		{
			name:    "zero jobs falls back to sequential",
			project: exampleProject,
			setupViper: func() {
				viper.Reset()
				viper.Set("jobs", 0)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 1, cfg.Jobs)
			},
		},
		{
			name:    "missing required fields",
			project: `name = "Only a name"`,
			setupViper: func() {
				viper.Reset()
			},
			wantErr:     true,
			errContains: "author, description, bundle_id, version",
		},
		{
			name:    "malformed document",
			project: `name = `,
			setupViper: func() {
				viper.Reset()
			},
			wantErr:     true,
			errContains: "invalid project document",
		},
		{
			name:    "invalid cache backend",
			project: exampleProject,
			setupViper: func() {
				viper.Reset()
				viper.Set("cache_backend", "redis")
			},
			wantErr:     true,
			errContains: "invalid cache backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupViper()
			path := writeProject(t, t.TempDir(), tt.project)

			cfg, err := Load(path)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, codes.ErrConfig)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	viper.Reset()

	_, err := Load(filepath.Join(t.TempDir(), "pdmake.toml"))
	require.Error(t, err)
	assert.Equal(t, codes.KindConfig, codes.KindOf(err))
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Project: Project{
				Name:        "X",
				Author:      "Y",
				Description: "Z",
				BundleID:    "com.z.x",
				Version:     "1.0",
			},
			CacheBackend: "file",
			Root:         ".",
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:        "blank name",
			mutate:      func(c *Config) { c.Name = "  " },
			wantErr:     true,
			errContains: "name",
		},
		{
			name:        "bundle id with path separator",
			mutate:      func(c *Config) { c.BundleID = "com/z/x" },
			wantErr:     true,
			errContains: "invalid bundle_id",
		},
		{
			name:        "unknown cache backend",
			mutate:      func(c *Config) { c.CacheBackend = "memory" },
			wantErr:     true,
			errContains: "invalid cache backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(cfg.Root), "Root should be resolved to an absolute path")
		})
	}
}
