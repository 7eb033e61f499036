package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Norgate-AV/pdmake/internal/codes"
	"github.com/Norgate-AV/pdmake/internal/runner"
)

// CommandBuilder handles building and running pdc commands
type CommandBuilder struct {
	exec runner.Executor
}

// NewCommandBuilder creates a new command builder running pdc through exec
func NewCommandBuilder(exec runner.Executor) *CommandBuilder {
	return &CommandBuilder{exec: exec}
}

// BuildCommandArgs builds the command arguments for pdc
func (cb *CommandBuilder) BuildCommandArgs(tree, bundle string, opts Options) []string {
	cmdArgs := []string{"-q"}

	if opts.Strip {
		cmdArgs = append(cmdArgs, "-s")
	}

	if opts.SkipUnknown {
		cmdArgs = append(cmdArgs, "-k")
	}

	return append(cmdArgs, tree, bundle)
}

// Package compiles tree into bundle. A failed run is reported as a packaging
// error carrying the compiler's output.
func (cb *CommandBuilder) Package(pdcPath, tree, bundle string, opts Options) error {
	info, err := os.Stat(tree)
	if err != nil {
		return codes.IO(err, "package", tree)
	}

	if !info.IsDir() {
		return codes.Packaging(fmt.Errorf("%s is not a directory", tree), "")
	}

	if err := os.MkdirAll(filepath.Dir(bundle), 0o755); err != nil {
		return codes.IO(err, "package", filepath.Dir(bundle))
	}

	if _, err := cb.exec.Run(pdcPath, cb.BuildCommandArgs(tree, bundle, opts), nil); err != nil {
		return codes.Packaging(err, runner.OutputOf(err))
	}

	return nil
}
