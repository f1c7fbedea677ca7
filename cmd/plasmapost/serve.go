package main

import (
	"context"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mastercactapus/plasmapost/toolpath"
)

func NewServeCommand() *cobra.Command {
	var (
		opts    linkOptions
		addr    string
		dir     string
		segLen  float64
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

  POST /api/post           translate a toolpath (JSON lines or YAML body) and store the program
  POST /api/run?id=<id>    stream a stored program, or the request body
  POST /api/probe          probe once, or a grid with grid=1
  POST /api/hold|resume|reset
  GET  /data/...           stored programs and probe results (PUT and DELETE also work)
  GET  /events/state       controller status (server-sent events)
  GET  /events/job         streaming progress (server-sent events)
  GET  /metrics            Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			err = os.MkdirAll(dir, 0755)
			if err != nil {
				return errors.Wrap(err, "create data dir")
			}

			var c controller
			if !offline {
				m, closeFn, err := opts.open(context.Background())
				if err != nil {
					return err
				}
				defer closeFn()
				c = m
			}

			a := newAPI(c, cfg, segLen, dir)
			defer a.Close()

			logrus.WithFields(logrus.Fields{
				"addr":    addr,
				"machine": cfg.Machine,
				"offline": offline,
			}).Info("listening")
			return http.ListenAndServe(addr, a)
		},
	}
	opts.register(cmd.Flags())

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", ":9091", "address to listen on")
	flags.StringVar(&dir, "dir", "./data", "data directory for programs and probe results")
	flags.Float64Var(&segLen, "segment", toolpath.DefaultSegmentLength, "longest straight segment used in place of an arc, mm")
	flags.BoolVar(&offline, "offline", false, "run without a controller; only translation and storage work")

	return cmd
}
