package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"jobly/cv-analyzer/internal/logger"
	"jobly/cv-analyzer/internal/scoring"
)

const app = "cvscore"

// Actual version can be specified in build command.
var version = "unknown"

var rootCmd = &cobra.Command{
	Use:          app,
	Short:        "cvscore scores CVs for ATS compatibility from the command line",
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("vocabulary", "", "YAML or JSON vocabulary override (default is the built-in vocabulary)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("vocabulary", rootCmd.PersistentFlags().Lookup("vocabulary"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindEnv("vocabulary", "VOCABULARY_FILE")

	rootCmd.AddCommand(scoreCmd, batchCmd, versionCmd)
}

func newLogger() (*zap.Logger, error) {
	level := "warn"
	if viper.GetBool("debug") {
		level = "debug"
	}
	format := "console"
	if viper.GetBool("json") {
		format = "json"
	}
	return logger.New(level, format)
}

func newEngine() (*scoring.Engine, error) {
	vocabulary, err := scoring.LoadVocabulary(viper.GetString("vocabulary"))
	if err != nil {
		return nil, err
	}
	return scoring.NewEngine(vocabulary)
}
