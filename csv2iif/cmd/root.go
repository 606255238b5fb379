package cmd

import (
	"os"

	"github.com/jtsay362/csv2iif"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var formatFilePath string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "csv2iif",
	Short: "Convert bank and credit card CSV exports to QuickBooks IIF files",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if formatFilePath != "" {
			return csv2iif.LoadFormatFile(formatFilePath)
		}
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&formatFilePath, "format-file", "F", "", "TOML file defining additional CSV formats.")
}

func newLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
	}
	return zerolog.New(output).With().Timestamp().Logger()
}
