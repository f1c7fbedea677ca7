package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mastercactapus/plasmapost/machine"
)

var (
	logLevel    = "info"
	configPath  = ""
	machineName = "plain"
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return errors.Wrap(err, "parse log level")
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.Kitchen,
	})
	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, machine.ErrNotIdle) {
		fmt.Fprintln(os.Stderr, "\nError: the controller is busy")
		fmt.Fprintln(os.Stderr, "  - Wait for the current job to finish, or clear any alarm, and try again")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plasmapost",
		Short: "plasmapost turns CAM toolpaths into G-code for a plasma table",
		Long: `plasmapost turns CAM toolpath events into G-code for a plasma cutting table,
checks the result and streams it to the table controller.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", logLevel, "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVarP(&configPath, "config", "c", configPath, "machine config file (.toml or .yaml)")
	globalFlags.StringVarP(&machineName, "machine", "m", machineName, "machine preset when the config names none (plain, thc)")

	cmd.AddCommand(
		NewPostCommand(),
		NewVerifyCommand(),
		NewSendCommand(),
		NewProbeCommand(),
		NewServeCommand(),
	)

	return cmd
}
