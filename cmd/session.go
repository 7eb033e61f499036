package cmd

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/pdmake/internal/builder"
	"github.com/Norgate-AV/pdmake/internal/compiler"
	"github.com/Norgate-AV/pdmake/internal/config"
	"github.com/Norgate-AV/pdmake/internal/formatter"
	"github.com/Norgate-AV/pdmake/internal/logging"
	"github.com/Norgate-AV/pdmake/internal/metaprogram"
	"github.com/Norgate-AV/pdmake/internal/processor"
	"github.com/Norgate-AV/pdmake/internal/runner"
	"github.com/Norgate-AV/pdmake/internal/toolchain"
)

// toolRunner runs external tools to completion or launches them detached
type toolRunner interface {
	runner.Executor
	Start(name string, args ...string) error
}

var newRunner = func(env map[string]string) toolRunner {
	return runner.New(env)
}

var newResolver = func(cfg *config.Config) toolchain.Resolver {
	return toolchain.New(map[string]string{
		toolchain.Pdc:       cfg.Tools.Pdc,
		toolchain.Aseprite:  cfg.Tools.Aseprite,
		toolchain.StyLua:    cfg.Tools.StyLua,
		toolchain.Simulator: cfg.Tools.Simulator,
	}, cfg.Tools.SDK)
}

// session is the state shared by one CLI invocation
type session struct {
	cfg    *config.Config
	log    zerolog.Logger
	tools  toolchain.Resolver
	runner toolRunner
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.NewLoader().LoadForBuild(cmd)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:    cfg,
		log:    logging.New(cmd.ErrOrStderr(), cfg.Verbose),
		tools:  newResolver(cfg),
		runner: newRunner(cfg.Build.Environment),
	}, nil
}

func (s *session) context(parent context.Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	return logging.WithLogger(parent, &s.log)
}

// registry wires the processors for mode
func (s *session) registry(mode builder.Mode) *processor.Registry {
	var f formatter.Formatter = formatter.Noop{}
	if path, err := s.tools.Resolve(toolchain.StyLua); err == nil {
		f = formatter.NewStyLua(path, s.runner)
	} else {
		s.log.Debug().Err(err).Msg("stylua not found, generated Lua will not be formatted")
	}

	rt := metaprogram.NewRuntime(mode.IsDebug(), s.cfg.Build.Environment)

	r := processor.NewRegistry()
	r.Register(processor.NewAseprite(s.tools, s.runner), "ase", "aseprite")
	r.Register(processor.NewPlua(rt, f, mode.IsDebug(), &s.log), "plua")

	return r
}

// build runs one complete build with a freshly loaded cache
func (s *session) build(ctx context.Context, mode builder.Mode, pkg compiler.Options) (*builder.Report, error) {
	c, err := builder.OpenCache(ctx, s.cfg, mode)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	b := builder.New(s.cfg, builder.Options{
		Mode:           mode,
		Jobs:           s.cfg.Jobs,
		Registry:       s.registry(mode),
		Cache:          c,
		Packager:       compiler.NewCommandBuilder(s.runner),
		Resolver:       s.tools,
		Progress:       newProgress(s.cfg.Verbose),
		PackageOptions: pkg,
	})

	report, err := b.Build(ctx)
	if err != nil {
		return report, err
	}

	s.log.Info().
		Str("mode", mode.String()).
		Int("processed", report.Processed).
		Int("skipped", report.Skipped).
		Str("bundle", report.Bundle).
		Msg("Build complete")

	return report, nil
}

// progress drives a terminal progress bar from builder notifications
type progress struct {
	hidden bool
	bar    *progressbar.ProgressBar
}

func newProgress(verbose bool) *progress {
	// Per-file debug logs replace the bar in verbose mode
	return &progress{hidden: verbose}
}

func (p *progress) Start(total int) {
	if p.hidden {
		p.bar = progressbar.NewOptions(total, progressbar.OptionSetVisibility(false))
		return
	}

	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Building"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progress) File(rel string, skipped bool) {
	if p.bar == nil {
		return
	}

	p.bar.Describe(rel)
	_ = p.bar.Add(1)
}

func (p *progress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
