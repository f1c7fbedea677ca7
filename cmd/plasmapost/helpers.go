package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/mastercactapus/plasmapost/config"
	"github.com/mastercactapus/plasmapost/gcode"
	"github.com/mastercactapus/plasmapost/machine"
	"github.com/mastercactapus/plasmapost/machine/link"
	"github.com/mastercactapus/plasmapost/post"
	"github.com/mastercactapus/plasmapost/spjs"
	"github.com/mastercactapus/plasmapost/toolpath"
)

// loadConfig reads --config, or the --machine preset if no file is given.
func loadConfig() (post.Config, error) {
	if configPath == "" {
		return post.DefaultConfig(post.Machine(machineName))
	}
	return config.Load(configPath, post.Machine(machineName))
}

// readEvents decodes a toolpath file, or stdin for "-" (format required).
func readEvents(path string, format toolpath.Format) ([]post.Event, error) {
	var err error
	if format == "" {
		format, err = toolpath.FormatOf(path)
		if err != nil {
			return nil, err
		}
	}

	var r io.Reader = os.Stdin
	if path != "-" {
		fd, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer fd.Close()
		r = fd
	}

	events, err := toolpath.Decode(r, format)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return events, nil
}

// translate runs events through a new translator writing to w.
func translate(cfg post.Config, events []post.Event, segLen float64, w gcode.Writer) (post.Stats, error) {
	tr, err := post.New(cfg, w)
	if err != nil {
		return post.Stats{}, err
	}
	err = toolpath.NewDriver(tr, segLen).Feed(events)
	if err != nil {
		return post.Stats{}, err
	}
	return tr.Stats(), nil
}

type linkOptions struct {
	port    string
	baud    int
	dialect string
	spjsURL string
	timeout time.Duration
}

func (o *linkOptions) register(flags *pflag.FlagSet) {
	flags.StringVar(&o.port, "port", "/dev/ttyUSB0", "serial port path (or port name when using SPJS)")
	flags.IntVar(&o.baud, "baud", 115200, "serial baud rate")
	flags.StringVar(&o.dialect, "dialect", link.Marlin.Name, "controller firmware: marlin or grbl")
	flags.StringVar(&o.spjsURL, "spjs", "", "websocket URL of a Serial Port JSON Server, e.g. ws://cnc-bridge:8989/ws")
	flags.DurationVar(&o.timeout, "status-timeout", 10*time.Second, "how long to wait for the first controller status")
}

// open connects to the controller and waits for its first status report.
func (o *linkOptions) open(ctx context.Context) (*machine.Machine, func(), error) {
	var (
		a       machine.Adapter
		closeFn func()
	)
	d, err := link.DialectByName(o.dialect)
	if err != nil {
		return nil, nil, err
	}
	log := logrus.WithFields(logrus.Fields{"port": o.port, "dialect": d})
	if o.spjsURL != "" {
		sp := spjs.New(o.spjsURL)
		a = link.NewSPJSAdapter(sp, o.port, o.baud, d)
		closeFn = func() { sp.Close() }
		log = log.WithField("spjs", o.spjsURL)
	} else {
		s, err := link.OpenSerial(o.port, o.baud, d)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "open %s", o.port)
		}
		a = s
		closeFn = func() { s.Close() }
	}
	log.Info("connecting to controller")
	m := machine.NewMachine(a)
	m.Log = log

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	t := time.NewTicker(250 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			closeFn()
			return nil, nil, errors.Wrap(ctx.Err(), "wait for controller status")
		case st := <-a.State():
			log.WithField("status", st.Status).Info("controller ready")
			return m, closeFn, nil
		case <-t.C:
			m.RequestStatus()
		}
	}
}
