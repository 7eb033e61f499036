package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/pdmake/internal/builder"
	"github.com/Norgate-AV/pdmake/internal/codes"
	"github.com/Norgate-AV/pdmake/internal/logging"
	"github.com/Norgate-AV/pdmake/internal/toolchain"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:          "run",
		Short:        "Build the bundle and open it in the simulator",
		RunE:         runRun,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
	}

	addBuildFlags(runCmd)
	runCmd.Flags().String("simulator", "", "Path to the Playdate simulator")

	return runCmd
}

func runRun(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	debug, _ := cmd.Flags().GetBool("debug")

	ctx := s.context(cmd.Context())

	report, err := s.build(ctx, builder.ModeFor(debug), packageOptions(cmd))
	if err != nil {
		return err
	}

	sim, err := s.tools.Resolve(toolchain.Simulator)
	if err != nil {
		return codes.Config(err, "cannot launch the simulator")
	}

	logging.From(ctx).Info().Str("simulator", sim).Str("bundle", report.Bundle).Msg("Launching")

	if err := s.runner.Start(sim, report.Bundle); err != nil {
		return codes.IO(err, "launch", sim)
	}

	return nil
}
