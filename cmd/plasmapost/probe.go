package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mastercactapus/plasmapost/machine"
)

func NewProbeCommand() *cobra.Command {
	var (
		opts   linkOptions
		grid   machine.ProbeGridOptions
		output string
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Probe the sheet surface on a grid",
		Long: `Probe the sheet surface on a grid starting at the current position and
write the results as JSON. The file can be used with "post --surface" or the
surface section of a config file.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			m, closeFn, err := opts.open(context.Background())
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := m.ProbeZGrid(grid)
			if err != nil {
				return err
			}
			logrus.WithField("points", len(res)).Info("probe complete")

			var out io.Writer = os.Stdout
			if output != "" && output != "-" {
				fd, err := os.Create(output)
				if err != nil {
					return err
				}
				defer fd.Close()
				out = fd
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	opts.register(cmd.Flags())

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "output file (default stdout)")
	flags.Float64Var(&grid.DistanceX, "size-x", 100, "grid size along X, mm")
	flags.Float64Var(&grid.DistanceY, "size-y", 100, "grid size along Y, mm")
	flags.Float64Var(&grid.Spacing, "spacing", 50, "largest distance between probes, mm")
	flags.Float64Var(&grid.FeedRate, "feed", 300, "probe feed rate, mm/min")
	flags.Float64Var(&grid.MaxTravel, "max-travel", -50, "probe travel from the start height, mm (negative)")
	flags.BoolVar(&grid.ZeroZAxis, "zero", false, "set Z to --offset at the first touch")
	flags.Float64Var(&grid.Offset, "offset", 0, "Z assigned at the first touch with --zero")

	return cmd
}
