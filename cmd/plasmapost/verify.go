package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mastercactapus/plasmapost/gcode"
	"github.com/mastercactapus/plasmapost/vm"
)

func NewVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [gcode]",
		Short: "Replay a G-code program and print a summary",
		Long: `Replay a G-code program the way the controller would and print where it
ends, how far it cuts and how many times it pierces. Use "-" for stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if args[0] != "-" {
				fd, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer fd.Close()
				r = fd
			}

			m := vm.NewMachine()
			err := m.Replay(gcode.NewParser(r))
			if err != nil {
				return err
			}

			pos := m.WPos()
			cmd.Printf("end position: X%.3f Y%.3f Z%.3f\n", pos.X, pos.Y, pos.Z)
			cmd.Printf("torch on:     %t\n", m.TorchOn())
			cmd.Printf("pierces:      %d\n", m.Pierces())
			cmd.Printf("cut length:   %.1f mm\n", m.CutLength())
			cmd.Printf("travel:       %.1f mm\n", m.TravelLength())
			cmd.Printf("dwell:        %.2f s\n", m.Dwell())
			cmd.Printf("status:       %s\n", m.Status())
			return nil
		},
	}
}
