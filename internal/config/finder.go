package config

import (
	"os"
	"path/filepath"
)

// ProjectFileNames lists the accepted project document names, in lookup order
var ProjectFileNames = []string{"pdmake.toml", ".pdmake.toml"}

// FindLocalConfig finds the project document by walking up directories
func FindLocalConfig(dir string) string {
	for {
		for _, name := range ProjectFileNames {
			path := filepath.Join(dir, name)

			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}
