// Package cli implements the agentview command set: diagnostic and query
// tooling over the resolution engine.
package cli

import (
	"github.com/agentview/core/config"
	"github.com/agentview/core/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewStandardCommand creates a command with the flags every agentview
// command carries.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to agentview.yml config file")

	return cmd
}

// GetLogger creates a logger honoring the command's verbosity flags.
func GetLogger(cmd *cobra.Command) *logrus.Logger {
	entry := logging.NewLogger("agentview-cli")
	logger := entry.Logger

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// LoadConfig resolves configuration for a command: the --config flag when
// given, otherwise the usual search path with defaults as fallback.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadDefault()
}

// jsonFlag reports whether --json was passed.
func jsonFlag(cmd *cobra.Command) bool {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return jsonOutput
}
