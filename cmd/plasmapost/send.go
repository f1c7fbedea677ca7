package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewSendCommand() *cobra.Command {
	var opts linkOptions

	cmd := &cobra.Command{
		Use:   "send [gcode]",
		Short: "Stream a G-code program to the controller",
		Long: `Stream a G-code program to the controller, directly over a serial port or
through Serial Port JSON Server. The controller must be idle.

Interrupting stops streaming and resets the controller.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fd, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer fd.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			m, closeFn, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			last := 0
			err = m.Run(ctx, fd, func(lines int) {
				if lines-last >= 100 {
					last = lines
					logrus.WithField("lines", lines).Info("streaming")
				}
			})
			if ctx.Err() != nil {
				logrus.Warn("interrupted, resetting controller")
				m.Reset()
			}
			return err
		},
	}
	opts.register(cmd.Flags())

	return cmd
}
