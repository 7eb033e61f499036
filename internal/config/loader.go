package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Norgate-AV/pdmake/internal/codes"
)

// Loader handles configuration loading from various sources
type Loader struct{}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadForBuild loads configuration for the project containing the working directory,
// or the one named by the --project flag
func (l *Loader) LoadForBuild(cmd *cobra.Command) (*Config, error) {
	l.setupViperDefaults()
	l.loadGlobalConfig()
	l.bindCommandFlags(cmd)

	projectFile, err := l.findProject(cmd)
	if err != nil {
		return nil, err
	}

	return Load(projectFile)
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("verbose", DefaultVerbose)
	viper.SetDefault("jobs", DefaultJobs)
	viper.SetDefault("cache_backend", DefaultCacheBackend)

	viper.SetEnvPrefix("PDMAKE")
	viper.AutomaticEnv()
}

// globalConfigDir returns the directory holding the user-wide config file
func globalConfigDir() string {
	if dir := os.Getenv("PDMAKE_CONFIG_DIR"); dir != "" {
		return dir
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(base, "pdmake")
}

// loadGlobalConfig loads the user-wide tool settings
func (l *Loader) loadGlobalConfig() {
	globalDir := globalConfigDir()
	if globalDir == "" {
		return
	}

	for _, ext := range []string{"toml", "yml", "yaml", "json"} {
		globalPath := filepath.Join(globalDir, "config."+ext)

		if _, err := os.Stat(globalPath); err == nil {
			viper.SetConfigFile(globalPath)

			if err := viper.ReadInConfig(); err == nil {
				break
			}
		}
	}
}

// findProject locates the project document
func (l *Loader) findProject(cmd *cobra.Command) (string, error) {
	if cmd != nil {
		if f := cmd.Flags().Lookup("project"); f != nil && f.Value.String() != "" {
			abs, err := filepath.Abs(f.Value.String())
			if err != nil {
				return "", codes.Config(err, "invalid project path")
			}

			if info, err := os.Stat(abs); err == nil && info.IsDir() {
				if found := FindLocalConfig(abs); found != "" {
					return found, nil
				}

				return "", codes.Config(nil, "no %s found in %s", ProjectFileNames[0], abs)
			}

			return abs, nil
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	found := FindLocalConfig(cwd)
	if found == "" {
		return "", codes.Config(nil, "no %s found in %s or any parent directory", ProjectFileNames[0], cwd)
	}

	return found, nil
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	_ = viper.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
	_ = viper.BindPFlag("jobs", cmd.Flags().Lookup("jobs"))
	_ = viper.BindPFlag("cache_backend", cmd.Flags().Lookup("cache-backend"))
	_ = viper.BindPFlag("aseprite_path", cmd.Flags().Lookup("aseprite"))
	_ = viper.BindPFlag("simulator_path", cmd.Flags().Lookup("simulator"))
}
