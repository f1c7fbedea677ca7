package main

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mastercactapus/plasmapost/config"
	"github.com/mastercactapus/plasmapost/gcode"
	"github.com/mastercactapus/plasmapost/toolpath"
)

func NewPostCommand() *cobra.Command {
	var (
		output     string
		format     string
		surface    string
		surfaceRef float64
		segLen     float64
	)

	cmd := &cobra.Command{
		Use:   "post [toolpath]",
		Short: "Translate a toolpath into G-code",
		Long: `Translate a toolpath event document into G-code.

The toolpath is YAML (.yaml, .yml) or JSON lines (.jsonl, .ndjson). Use "-"
to read stdin together with --format. Arcs the controller cannot take are cut
as straight segments of at most --segment mm.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if surface != "" {
				var ref *float64
				if cmd.Flags().Changed("surface-ref") {
					ref = &surfaceRef
				}
				cfg.Surface, err = config.LoadSurface(surface, ref)
				if err != nil {
					return err
				}
			}

			events, err := readEvents(args[0], toolpath.Format(format))
			if err != nil {
				return err
			}

			var out io.Writer = os.Stdout
			if output != "" && output != "-" {
				fd, err := os.Create(output)
				if err != nil {
					return err
				}
				defer fd.Close()
				out = fd
			}
			bw := bufio.NewWriter(out)

			stats, err := translate(cfg, events, segLen, gcode.NewTextWriter(bw))
			if err != nil {
				return err
			}
			err = bw.Flush()
			if err != nil {
				return errors.Wrap(err, "write output")
			}

			logrus.WithFields(logrus.Fields{
				"machine":    cfg.Machine,
				"lines":      stats.Lines,
				"sections":   stats.Sections,
				"pierces":    stats.Pierces,
				"linearized": stats.Linearized,
			}).Info("posted")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "output file (default stdout)")
	flags.StringVar(&format, "format", "", "toolpath format (yaml, jsonl), by extension if unset")
	flags.StringVar(&surface, "surface", "", "probe result file for sheet height compensation")
	flags.Float64Var(&surfaceRef, "surface-ref", 0, "Z that means no offset (default: first probe)")
	flags.Float64Var(&segLen, "segment", toolpath.DefaultSegmentLength, "longest straight segment used in place of an arc, mm")

	return cmd
}
