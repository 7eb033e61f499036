package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Default project directories
const (
	DefaultSrcDir    = "src"
	DefaultAssetsDir = "assets"
	DefaultTargetDir = "target"
)

// Project is the project document (pdmake.toml)
type Project struct {
	Name         string            `toml:"name"`
	Author       string            `toml:"author"`
	Description  string            `toml:"description"`
	BundleID     string            `toml:"bundle_id"`
	Version      string            `toml:"version"`
	Build        BuildSection      `toml:"build"`
	Dependencies map[string]string `toml:"dependencies"`
}

// BuildSection defines the [build] section
type BuildSection struct {
	Directories  Directories       `toml:"directories"`
	Environment  map[string]string `toml:"environment"`
	AsepritePath string            `toml:"aseprite_path"`
}

// Directories defines the [build.directories] section
type Directories struct {
	Src    string `toml:"src"`
	Assets string `toml:"assets"`
	Target string `toml:"target"`
}

// ParseProject decodes a project document and fills in default directories
func ParseProject(data []byte) (*Project, error) {
	var p Project

	dec := toml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&p); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}

		return nil, err
	}

	if p.Build.Directories.Src == "" {
		p.Build.Directories.Src = DefaultSrcDir
	}

	if p.Build.Directories.Assets == "" {
		p.Build.Directories.Assets = DefaultAssetsDir
	}

	if p.Build.Directories.Target == "" {
		p.Build.Directories.Target = DefaultTargetDir
	}

	return &p, nil
}

// ReadProject reads and parses the project document at path
func ReadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	p, err := ParseProject(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return p, nil
}
