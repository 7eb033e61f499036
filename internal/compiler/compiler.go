// Package compiler drives pdc, the packaging compiler that turns a finished
// build tree into a .pdx bundle.
package compiler

import (
	"strings"
)

// ShellCommand is a resolved packaging invocation
type ShellCommand struct {
	Path string
	Args []string
}

func (c *ShellCommand) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Options adjusts the pdc invocation
type Options struct {
	// Strip removes debug symbols from the bundle
	Strip bool

	// SkipUnknown copies files pdc does not recognize instead of failing
	SkipUnknown bool
}

// GetBuildCommand returns the pdc command packaging tree into bundle
func GetBuildCommand(pdcPath, tree, bundle string, opts Options) *ShellCommand {
	return &ShellCommand{
		Path: pdcPath,
		Args: NewCommandBuilder(nil).BuildCommandArgs(tree, bundle, opts),
	}
}
