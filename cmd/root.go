package cmd

import (
	"os"

	"github.com/djcass44/go-utils/logging"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var command = &cobra.Command{
	Use:          "embree-fetch",
	Short:        "install prebuilt embree libraries",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel, _ := cmd.Flags().GetInt(flagLogLevel)

		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.Level(logLevel * -1))

		_, ctx := logging.NewZap(cmd.Context(), zc)
		log := logr.FromContextOrDiscard(ctx).WithValues("run", uuid.NewString())
		cmd.SetContext(logr.NewContext(ctx, log))
	},
	RunE: install,
}

const (
	flagLogLevel = "v"
	flagConfig   = "config"
	flagProgress = "progress"
	flagOS       = "os"
	flagArch     = "arch"
)

func init() {
	command.PersistentFlags().Int(flagLogLevel, 0, "log level. Higher is more")
	command.PersistentFlags().StringP(flagConfig, "c", "", "path to the dependency catalog (defaults to ./embree.json)")
	command.PersistentFlags().Bool(flagProgress, false, "show a progress bar for each download")

	// overrides for testing catalogs against other platforms
	command.PersistentFlags().String(flagOS, "", "operating system to install for")
	command.PersistentFlags().String(flagArch, "", "architecture to install for")
	_ = command.PersistentFlags().MarkHidden(flagOS)
	_ = command.PersistentFlags().MarkHidden(flagArch)

	_ = command.MarkPersistentFlagFilename(flagConfig, ".json", ".yaml", ".yml")

	command.AddCommand(statusCmd, lockCmd)
}

func Execute(version string) {
	command.Version = version
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
