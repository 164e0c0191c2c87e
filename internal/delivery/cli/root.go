package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/platewise/reviewpipe/internal/usecase"
)

// NewRootCommand builds the reviewpipe command tree. Running the root command
// without a sub-command runs every stage.
func NewRootCommand(version string, stdout io.Writer) *cobra.Command {
	opts := &runOptions{stdout: stdout}

	root := &cobra.Command{
		Use:   "reviewpipe",
		Short: "Harvest third-party reviews, match them to dishes and generate seed SQL",
		Long: `reviewpipe pulls restaurant reviews from Google Places and Yelp, links review
excerpts to catalog dishes and writes idempotent INSERT statements for the
reviews table.

Stages:
  harvest   collect reviews for restaurants in the target towns
  match     link review excerpts to dishes
  generate  write the SQL seed file
  all       run all three (default)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          stageArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStage(cmd, opts, usecase.StageAll)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: ./reviewpipe.yaml)")
	flags.String("data-dir", "", "directory holding the stage files")
	flags.String("lexicon", "", "YAML file overriding the built-in word tables")
	flags.String("output", "", "generated SQL file name")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")
	flags.String("cache", "", "provider response cache (none, file, memory, redis)")
	flags.String("metrics-textfile", "", "write run metrics to this Prometheus textfile")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "disable the harvest progress bar")

	root.SetOut(stdout)
	root.AddCommand(
		stageCommand(opts, usecase.StageHarvest, "Collect reviews for catalog restaurants"),
		stageCommand(opts, usecase.StageMatch, "Link harvested review excerpts to dishes"),
		stageCommand(opts, usecase.StageGenerate, "Write INSERT statements for matched reviews"),
		stageCommand(opts, usecase.StageAll, "Run harvest, match and generate in order"),
	)

	return root
}

func stageCommand(opts *runOptions, stage usecase.Stage, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(stage),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStage(cmd, opts, stage)
		},
	}
}

// stageArgs turns a stray argument into an unknown-stage error
func stageArgs(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if _, err := usecase.ParseStage(args[0]); err != nil {
		return err
	}
	return fmt.Errorf("unexpected argument %q", args[0])
}
