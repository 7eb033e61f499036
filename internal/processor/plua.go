package processor

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/Norgate-AV/pdmake/internal/codes"
	"github.com/Norgate-AV/pdmake/internal/formatter"
	"github.com/Norgate-AV/pdmake/internal/logging"
	"github.com/Norgate-AV/pdmake/internal/metaprogram"
	"github.com/Norgate-AV/pdmake/internal/utils"
)

// DiagnosticExt is appended to the output path of a failed metaprogram
const DiagnosticExt = ".star"

// Plua expands .plua metaprograms into Lua
type Plua struct {
	runtime   *metaprogram.Runtime
	formatter formatter.Formatter
	debug     bool
	log       *zerolog.Logger
}

// NewPlua creates the metaprogram processor. In debug mode a failed program
// leaves its generated source next to the output for inspection.
func NewPlua(runtime *metaprogram.Runtime, f formatter.Formatter, debug bool, log *zerolog.Logger) *Plua {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	return &Plua{runtime: runtime, formatter: f, debug: debug, log: log}
}

func (p *Plua) OutputPath(dest string) string {
	return utils.ReplaceExt(dest, "lua")
}

// DiagnosticPath is where the generated program is written on failure
func (p *Plua) DiagnosticPath(dest string) string {
	return p.OutputPath(dest) + DiagnosticExt
}

func (p *Plua) Process(src, dest string) error {
	text, err := os.ReadFile(src)
	if err != nil {
		return codes.IO(err, "read", src)
	}

	ctx := logging.WithLogger(context.Background(), p.log)

	out, program, err := p.runtime.Expand(ctx, src, string(text))
	if err != nil {
		if p.debug && program != nil {
			diag := p.DiagnosticPath(dest)
			if werr := os.WriteFile(diag, []byte(program.Source), 0o644); werr != nil {
				p.log.Warn().Err(werr).Str("file", diag).Msg("Failed to write metaprogram diagnostic")
			} else {
				p.log.Debug().Str("file", diag).Msg("Wrote metaprogram diagnostic")
			}
		}

		return codes.Processor(err, src, "")
	}

	formatted, ferr := formatter.FormatOrKeep(p.formatter, out)
	if ferr != nil {
		p.log.Warn().Err(ferr).Str("file", src).Msg("Formatting failed, keeping unformatted output")
	}

	target := p.OutputPath(dest)
	if err := os.WriteFile(target, []byte(formatted), 0o644); err != nil {
		return codes.IO(err, "write", target)
	}

	// A diagnostic left by an earlier failure must not reach the bundle
	diag := p.DiagnosticPath(dest)
	if err := os.Remove(diag); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return codes.IO(err, "remove", diag)
	}

	return nil
}
