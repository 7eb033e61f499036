// Package formatter pretty-prints generated Lua through stylua.
package formatter

import (
	"errors"
	"fmt"

	"github.com/Norgate-AV/pdmake/internal/runner"
)

// Formatter rewrites source text
type Formatter interface {
	Format(source string) (string, error)
}

// StyLua formats Lua by piping it through `stylua -`
type StyLua struct {
	path string
	exec runner.Executor
}

// NewStyLua creates a formatter invoking the stylua executable at path
func NewStyLua(path string, exec runner.Executor) *StyLua {
	return &StyLua{path: path, exec: exec}
}

func (s *StyLua) Format(source string) (string, error) {
	if s.path == "" {
		return "", errors.New("stylua not available")
	}

	result, err := s.exec.Run(s.path, []string{"-"}, []byte(source))
	if err != nil {
		if out := runner.OutputOf(err); out != "" {
			return "", fmt.Errorf("%w: %s", err, out)
		}

		return "", err
	}

	return string(result.Stdout), nil
}

// Noop returns source unchanged
type Noop struct{}

func (Noop) Format(source string) (string, error) {
	return source, nil
}

// FormatOrKeep formats source, falling back to the unformatted text on failure.
// The returned error is informational only.
func FormatOrKeep(f Formatter, source string) (string, error) {
	if f == nil {
		return source, nil
	}

	formatted, err := f.Format(source)
	if err != nil {
		return source, err
	}

	return formatted, nil
}
