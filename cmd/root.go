package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/pdmake/internal/codes"
	"github.com/Norgate-AV/pdmake/internal/logging"
	"github.com/Norgate-AV/pdmake/internal/version"
)

// NewRootCmd builds the pdmake command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pdmake",
		Short: "Playdate build tool",
		Long: `Build Playdate games incrementally: process sources and assets into
target/<mode>, write pdxinfo and package the result with pdc.`,
		RunE:          runBuild,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("project", "p", "", "Project file or directory (default: search upwards from the working directory)")
	addBuildFlags(rootCmd)

	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newRunCmd())

	return rootCmd
}

func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		logging.Default().Error().Msg(err.Error())
		os.Exit(codes.ExitCode(err))
	}
}
