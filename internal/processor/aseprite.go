package processor

import (
	"sync"

	"github.com/Norgate-AV/pdmake/internal/codes"
	"github.com/Norgate-AV/pdmake/internal/runner"
	"github.com/Norgate-AV/pdmake/internal/toolchain"
	"github.com/Norgate-AV/pdmake/internal/utils"
)

// Aseprite exports .ase/.aseprite sprites to PNG with the aseprite CLI
type Aseprite struct {
	resolver toolchain.Resolver
	exec     runner.Executor

	once sync.Once
	path string
	err  error
}

// NewAseprite creates the image processor. The executable is resolved on
// first use so projects without sprites never need aseprite installed.
func NewAseprite(resolver toolchain.Resolver, exec runner.Executor) *Aseprite {
	return &Aseprite{resolver: resolver, exec: exec}
}

func (a *Aseprite) OutputPath(dest string) string {
	return utils.ReplaceExt(dest, "png")
}

// BuildArgs returns the aseprite arguments for converting src into out
func (a *Aseprite) BuildArgs(src, out string) []string {
	return []string{"-b", src, "--save-as", out}
}

func (a *Aseprite) Process(src, dest string) error {
	a.once.Do(func() {
		a.path, a.err = a.resolver.Resolve(toolchain.Aseprite)
	})

	if a.err != nil {
		return codes.Processor(a.err, src, "")
	}

	out := a.OutputPath(dest)
	if _, err := a.exec.Run(a.path, a.BuildArgs(src, out), nil); err != nil {
		return codes.Processor(err, src, runner.OutputOf(err))
	}

	return nil
}
