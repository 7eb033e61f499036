// Package toolchain locates the external executables pdmake drives.
//
// Each platform family has its own search strategy: the Playdate SDK layout,
// well-known application install locations, then PATH. Explicit overrides
// from configuration always win.
package toolchain

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Tool names
const (
	Pdc       = "pdc"
	Aseprite  = "aseprite"
	StyLua    = "stylua"
	Simulator = "simulator"
)

// Resolver finds the executable path for a tool
type Resolver interface {
	Resolve(tool string) (string, error)
}

// Strategy lists candidate locations for a tool on one platform family.
// Bare names (no path separator) are looked up on PATH.
type Strategy interface {
	Candidates(tool string) []string
}

// NotFoundError reports a tool missing from every searched location
type NotFoundError struct {
	Tool     string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find %s (searched: %s)", e.Tool, strings.Join(e.Searched, ", "))
}

// Toolchain resolves tools through overrides and platform strategies
type Toolchain struct {
	overrides  map[string]string
	strategies []Strategy
	exists     func(path string) bool
	lookPath   func(file string) (string, error)
}

// New creates a toolchain for the running platform
func New(overrides map[string]string, sdkRoot string) *Toolchain {
	home, _ := os.UserHomeDir()
	if sdkRoot == "" {
		sdkRoot = DefaultSDKRoot(runtime.GOOS, home)
	}

	return &Toolchain{
		overrides:  overrides,
		strategies: ForPlatform(runtime.GOOS, sdkRoot, home),
		exists:     isFile,
		lookPath:   exec.LookPath,
	}
}

// Resolve returns the first existing candidate for tool
func (t *Toolchain) Resolve(tool string) (string, error) {
	if p := t.overrides[tool]; p != "" {
		return p, nil
	}

	var searched []string
	for _, s := range t.strategies {
		for _, candidate := range s.Candidates(tool) {
			searched = append(searched, candidate)

			if !strings.ContainsAny(candidate, `/\`) {
				if p, err := t.lookPath(candidate); err == nil {
					return p, nil
				}

				continue
			}

			if t.exists(candidate) {
				return candidate, nil
			}
		}
	}

	return "", &NotFoundError{Tool: tool, Searched: searched}
}

// DefaultSDKRoot returns the SDK location from PLAYDATE_SDK_PATH or the platform default
func DefaultSDKRoot(goos, home string) string {
	if p := os.Getenv("PLAYDATE_SDK_PATH"); p != "" {
		return p
	}

	if home == "" {
		return ""
	}

	switch goos {
	case "darwin":
		return filepath.Join(home, "Developer", "PlaydateSDK")
	case "windows":
		return filepath.Join(home, "Documents", "PlaydateSDK")
	default:
		return ""
	}
}

// ForPlatform returns the search strategies for a platform family
func ForPlatform(goos, sdkRoot, home string) []Strategy {
	switch goos {
	case "darwin":
		return []Strategy{
			sdkStrategy{root: sdkRoot, simulator: filepath.Join("Playdate Simulator.app", "Contents", "MacOS", "Playdate Simulator")},
			macAppStrategy{dirs: []string{"/Applications", filepath.Join(home, "Applications")}, home: home},
			pathStrategy{},
		}
	case "windows":
		return []Strategy{
			sdkStrategy{root: sdkRoot, suffix: ".exe", simulator: "PlaydateSimulator.exe"},
			windowsAppStrategy{programFiles: []string{os.Getenv("ProgramFiles"), os.Getenv("ProgramFiles(x86)")}},
			pathStrategy{suffix: ".exe"},
		}
	default:
		return []Strategy{
			sdkStrategy{root: sdkRoot, simulator: "PlaydateSimulator"},
			pathStrategy{},
		}
	}
}

type sdkStrategy struct {
	root      string
	suffix    string
	simulator string
}

func (s sdkStrategy) Candidates(tool string) []string {
	if s.root == "" {
		return nil
	}

	bin := filepath.Join(s.root, "bin")
	switch tool {
	case Pdc:
		return []string{filepath.Join(bin, Pdc+s.suffix)}
	case Simulator:
		return []string{filepath.Join(bin, s.simulator)}
	default:
		return nil
	}
}

type macAppStrategy struct {
	dirs []string
	home string
}

func (s macAppStrategy) Candidates(tool string) []string {
	if tool != Aseprite {
		return nil
	}

	bundle := filepath.Join("Aseprite.app", "Contents", "MacOS", "aseprite")

	var out []string
	for _, dir := range s.dirs {
		out = append(out, filepath.Join(dir, bundle))
	}

	if s.home != "" {
		steam := filepath.Join(s.home, "Library", "Application Support", "Steam", "steamapps", "common", "Aseprite")
		out = append(out, filepath.Join(steam, bundle))
	}

	return out
}

type windowsAppStrategy struct {
	programFiles []string
}

func (s windowsAppStrategy) Candidates(tool string) []string {
	if tool != Aseprite {
		return nil
	}

	var out []string
	for _, pf := range s.programFiles {
		if pf == "" {
			continue
		}

		out = append(out,
			filepath.Join(pf, "Aseprite", "Aseprite.exe"),
			filepath.Join(pf, "Steam", "steamapps", "common", "Aseprite", "Aseprite.exe"),
		)
	}

	return out
}

type pathStrategy struct {
	suffix string
}

func (s pathStrategy) Candidates(tool string) []string {
	switch tool {
	case Simulator:
		return []string{"PlaydateSimulator" + s.suffix}
	default:
		return []string{tool + s.suffix}
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
