// Package runner executes the external tools the build depends on (pdc,
// aseprite, stylua, the simulator) and captures their diagnostic output.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Commander interface for testing
type Commander interface {
	Run() error
}

// Result holds the captured output of a finished process
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Output returns stderr followed by stdout, trimmed
func (r *Result) Output() string {
	if r == nil {
		return ""
	}

	parts := make([]string, 0, 2)
	for _, b := range [][]byte{r.Stderr, r.Stdout} {
		if s := strings.TrimSpace(string(b)); s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, "\n")
}

// Executor runs a named program to completion
type Executor interface {
	Run(name string, args []string, stdin []byte) (*Result, error)
}

// ExitError reports a process that ran but exited non-zero
type ExitError struct {
	Name   string
	Code   int
	Result *Result
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
}

// Runner is the default Executor backed by os/exec
type Runner struct {
	env         []string
	execCommand func(name string, args ...string) Commander
}

// New creates a runner that adds env to the inherited process environment
func New(env map[string]string) *Runner {
	return &Runner{
		env: environ(env),
		execCommand: func(name string, args ...string) Commander {
			return exec.Command(name, args...)
		},
	}
}

// Run executes name with args, feeding stdin when non-nil. A non-zero exit is
// returned as *ExitError with the captured output attached.
func (r *Runner) Run(name string, args []string, stdin []byte) (*Result, error) {
	var stdout, stderr bytes.Buffer

	c := r.execCommand(name, args...)
	if cmd, ok := c.(*exec.Cmd); ok {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if stdin != nil {
			cmd.Stdin = bytes.NewReader(stdin)
		}

		if len(r.env) > 0 {
			cmd.Env = append(os.Environ(), r.env...)
		}
	}

	err := c.Run()
	result := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, &ExitError{Name: name, Code: exitErr.ExitCode(), Result: result}
		}

		return result, fmt.Errorf("failed to run %s: %w", name, err)
	}

	return result, nil
}

// Start launches name without waiting for it to exit
func (r *Runner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}

	return cmd.Process.Release()
}

// OutputOf extracts captured diagnostics from an error returned by Run
func OutputOf(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Result.Output()
	}

	return ""
}

func environ(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vars := make([]string, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, k+"="+env[k])
	}

	return vars
}
