package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Norgate-AV/pdmake/internal/codes"
	"github.com/Norgate-AV/pdmake/internal/config"
)

// ManifestName is the metadata file pdc reads from the build tree
const ManifestName = "pdxinfo"

// BuildNumber is written to every manifest
const BuildNumber = 1

// Manifest is the bundle metadata
type Manifest struct {
	Name        string
	Author      string
	Description string
	BundleID    string
	Version     string
	BuildNumber int
}

// pdxinfo values cannot span lines
var singleLine = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// NewManifest copies the bundle metadata out of the project
func NewManifest(cfg *config.Config) Manifest {
	return Manifest{
		Name:        cfg.Name,
		Author:      cfg.Author,
		Description: cfg.Description,
		BundleID:    cfg.BundleID,
		Version:     cfg.Version,
		BuildNumber: BuildNumber,
	}
}

// String renders the manifest as key=value lines
func (m Manifest) String() string {
	var b strings.Builder
	for _, kv := range [][2]string{
		{"name", m.Name},
		{"author", m.Author},
		{"description", m.Description},
		{"bundleID", m.BundleID},
		{"version", m.Version},
		{"buildNumber", fmt.Sprint(m.BuildNumber)},
	} {
		fmt.Fprintf(&b, "%s=%s\n", kv[0], singleLine.Replace(kv[1]))
	}

	return b.String()
}

// Write stores the manifest in dir, replacing any previous one
func (m Manifest) Write(dir string) (string, error) {
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(m.String()), 0o644); err != nil {
		return "", codes.IO(err, "manifest", path)
	}

	return path, nil
}
