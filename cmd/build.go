package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/pdmake/internal/builder"
	"github.com/Norgate-AV/pdmake/internal/compiler"
	"github.com/Norgate-AV/pdmake/internal/logging"
	"github.com/Norgate-AV/pdmake/internal/watcher"
)

func newBuildCmd() *cobra.Command {
	buildCmd := &cobra.Command{
		Use:          "build",
		Short:        "Build the project bundle",
		Long:         `Process changed sources into target/<mode>, write pdxinfo and package target/<bundle_id>.pdx with pdc.`,
		RunE:         runBuild,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
	}

	addBuildFlags(buildCmd)
	buildCmd.Flags().BoolP("watch", "w", false, "Rebuild whenever sources change")

	return buildCmd
}

// addBuildFlags registers the flags shared by every command that builds
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("debug", "d", false, "Build in debug mode (DEBUG = True in metaprograms)")
	cmd.Flags().IntP("jobs", "j", 1, "Number of files processed concurrently")
	cmd.Flags().String("cache-backend", "", "Cache store backend (file or bolt)")
	cmd.Flags().String("aseprite", "", "Path to the aseprite executable")
	cmd.Flags().Bool("strip", false, "Strip debug symbols from the bundle")
	cmd.Flags().Bool("skip-unknown", false, "Let pdc copy files it does not recognize instead of failing")
}

// packageOptions reads the pdc flags registered by addBuildFlags
func packageOptions(cmd *cobra.Command) compiler.Options {
	strip, _ := cmd.Flags().GetBool("strip")
	skipUnknown, _ := cmd.Flags().GetBool("skip-unknown")

	return compiler.Options{Strip: strip, SkipUnknown: skipUnknown}
}

func runBuild(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	mode := builder.ModeFor(debug)
	pkg := packageOptions(cmd)

	ctx := s.context(cmd.Context())

	watch, _ := cmd.Flags().GetBool("watch")
	if watch {
		return s.watch(ctx, mode, pkg)
	}

	_, err = s.build(ctx, mode, pkg)
	return err
}

// watch builds once, then again after every batch of source changes until interrupted
func (s *session) watch(ctx context.Context, mode builder.Mode, pkg compiler.Options) error {
	log := logging.From(ctx)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if _, err := s.build(ctx, mode, pkg); err != nil {
		log.Error().Msg(err.Error())
	}

	w, err := watcher.New(watcher.DefaultDebounce)
	if err != nil {
		return err
	}
	defer w.Close()

	w.AddFilter(watcher.IgnoreDir(s.cfg.TargetDir()))
	for _, dir := range []string{s.cfg.SourceDir(), s.cfg.AssetsDir()} {
		if err := w.AddRecursive(dir); err != nil {
			return err
		}
	}

	log.Info().Str("src", s.cfg.SourceDir()).Msg("Watching for changes, press Ctrl+C to stop")

	return w.Run(ctx, func(ctx context.Context, paths []string) error {
		start := time.Now()
		log.Info().Int("changed", len(paths)).Msg("Rebuilding")

		if _, err := s.build(ctx, mode, pkg); err != nil {
			return err
		}

		log.Info().Dur("took", time.Since(start)).Msg("Rebuilt")
		return nil
	})
}
