package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/pdmake/internal/codes"
	"github.com/Norgate-AV/pdmake/internal/logging"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "clean",
		Short:        "Remove the build output",
		Long:         `Delete the target directory, including both build modes, the bundle and the build cache.`,
		RunE:         runClean,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
	}
}

func runClean(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	ctx := s.context(cmd.Context())
	target := s.cfg.TargetDir()

	// RemoveAll treats a missing directory as success
	if err := os.RemoveAll(target); err != nil {
		return codes.IO(err, "clean", target)
	}

	logging.From(ctx).Info().Str("dir", target).Msg("Cleaned")

	return nil
}
