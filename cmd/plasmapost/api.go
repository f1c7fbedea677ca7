package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/plasmapost/gcode"
	"github.com/mastercactapus/plasmapost/machine"
	"github.com/mastercactapus/plasmapost/post"
	"github.com/mastercactapus/plasmapost/toolpath"
)

// controller is what the API needs from a connected table.
type controller interface {
	Run(ctx context.Context, r io.Reader, progress func(lines int)) error
	ProbeZ(machine.ProbeOptions) (*machine.ProbeResult, error)
	ProbeZGrid(machine.ProbeGridOptions) ([]machine.ProbeResult, error)
	Hold() error
	Resume() error
	Reset() error

	State() chan machine.State
}

type api struct {
	http.Handler
	m       controller
	cfg     post.Config
	segLen  float64
	dataDir string
	sse     *sse.Server
	metrics *metrics
	log     logrus.FieldLogger
}

// programExt is the extension of stored programs.
const programExt = ".nc"

// newAPI serves the API. m may be nil when no table is connected.
func newAPI(m controller, cfg post.Config, segLen float64, dir string) *api {
	r := mux.NewRouter()

	sseLog := logrus.StandardLogger().WriterLevel(logrus.DebugLevel)
	a := &api{
		Handler: r,
		m:       m,
		cfg:     cfg,
		segLen:  segLen,
		dataDir: dir,
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(sseLog, "sse: ", 0),
		}),
		metrics: newMetrics(),
		log:     logrus.StandardLogger(),
	}
	r.Use(a.logRequests)

	r.PathPrefix("/data/").Methods("GET").Handler(http.StripPrefix("/data", http.FileServer(http.Dir(dir))))
	r.PathPrefix("/data/").Methods("PUT").Handler(http.StripPrefix("/data", http.HandlerFunc(a.putFile)))
	r.PathPrefix("/data/").Methods("DELETE").Handler(http.StripPrefix("/data", http.HandlerFunc(a.deleteFile)))

	r.HandleFunc("/api/post", a.post).Methods("POST")
	r.HandleFunc("/api/run", a.needController(a.run)).Methods("POST")
	r.HandleFunc("/api/probe", a.needController(a.probe)).Methods("POST")
	r.HandleFunc("/api/hold", a.needController(a.realtime(func(c controller) error { return c.Hold() }))).Methods("POST")
	r.HandleFunc("/api/resume", a.needController(a.realtime(func(c controller) error { return c.Resume() }))).Methods("POST")
	r.HandleFunc("/api/reset", a.needController(a.realtime(func(c controller) error { return c.Reset() }))).Methods("POST")

	r.Handle("/metrics", promhttp.HandlerFor(a.metrics.registry, promhttp.HandlerOpts{})).Methods("GET")
	r.PathPrefix("/events/").Handler(a.sse)
	if m != nil {
		go a.publishState(m.State())
	}

	return a
}

// logRequests adds CORS headers and logs each request at debug level.
func (a *api) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		a.log.WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
			"remote": req.RemoteAddr,
		}).Debug("request")
		next.ServeHTTP(w, req)
	})
}

func (a *api) needController(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if a.m == nil {
			http.Error(w, "no controller connected", http.StatusServiceUnavailable)
			return
		}
		next(w, req)
	}
}

func (a *api) Close() {
	a.sse.Shutdown()
}

func (a *api) publish(channel string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		a.log.WithError(err).Error("marshal event")
		return
	}
	a.sse.SendMessage(channel, sse.SimpleMessage(string(data)))
}

func (a *api) publishState(states chan machine.State) {
	for state := range states {
		a.publish("/events/state", state)
	}
}

func (a *api) fail(w http.ResponseWriter, op string, code int, err error) {
	a.metrics.failures.WithLabelValues(op).Inc()
	a.log.WithError(err).WithField("op", op).Error("request failed")
	http.Error(w, err.Error(), code)
}

func safePath(base, name string) (bool, string) {
	if filepath.Separator != '/' && strings.ContainsRune(name, filepath.Separator) {
		return false, ""
	}
	dir := base
	if dir == "" {
		dir = "."
	}
	fullName := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+name)))
	return true, fullName
}

// programPath returns the stored program for a job id.
func (a *api) programPath(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return filepath.Join(a.dataDir, parsed.String()+programExt), true
}

type postResult struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	post.Stats
}

func requestFormat(req *http.Request) toolpath.Format {
	if f := req.FormValue("format"); f != "" {
		return toolpath.Format(f)
	}
	ct := req.Header.Get("Content-Type")
	if strings.Contains(ct, "yaml") {
		return toolpath.FormatYAML
	}
	return toolpath.FormatJSONLines
}

// post translates a toolpath and stores the program under a new id.
func (a *api) post(w http.ResponseWriter, req *http.Request) {

	events, err := toolpath.Decode(req.Body, requestFormat(req))
	if err != nil {
		a.fail(w, "post", http.StatusBadRequest, err)
		return
	}

	var prog gcode.Program
	stats, err := translate(a.cfg, events, a.segLen, &prog)
	if err != nil {
		a.fail(w, "post", http.StatusUnprocessableEntity, err)
		return
	}

	id := uuid.New().String()
	name, _ := a.programPath(id)
	err = os.MkdirAll(a.dataDir, 0755)
	if err == nil {
		err = ioutil.WriteFile(name, []byte(prog.String()), 0644)
	}
	if err != nil {
		a.fail(w, "post", http.StatusInternalServerError, err)
		return
	}

	a.metrics.posted.Inc()
	a.metrics.lines.Add(float64(stats.Lines))
	a.metrics.linearized.Add(float64(stats.Linearized))
	a.log.WithFields(logrus.Fields{"id": id, "lines": stats.Lines}).Info("posted")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(postResult{
		ID:    id,
		Path:  "/data/" + id + programExt,
		Stats: stats,
	})
}

type jobProgress struct {
	ID    string `json:"id,omitempty"`
	Lines int    `json:"lines"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// run streams a stored program (?id=) or the request body.
func (a *api) run(w http.ResponseWriter, req *http.Request) {

	id := req.FormValue("id")
	var r io.Reader
	if id != "" {
		name, ok := a.programPath(id)
		if !ok {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		data, err := ioutil.ReadFile(name)
		if err != nil {
			a.fail(w, "run", http.StatusNotFound, err)
			return
		}
		r = bytes.NewReader(data)
	} else {
		r = req.Body
	}

	a.metrics.busy.Set(1)
	defer a.metrics.busy.Set(0)

	last := 0
	err := a.m.Run(req.Context(), r, func(lines int) {
		a.metrics.streamed.Add(float64(lines - last))
		last = lines
		a.publish("/events/job", jobProgress{ID: id, Lines: lines})
	})
	done := jobProgress{ID: id, Lines: last, Done: true}
	if err != nil {
		done.Error = err.Error()
		a.publish("/events/job", done)
		code := http.StatusInternalServerError
		if errors.Is(err, machine.ErrNotIdle) {
			code = http.StatusConflict
		}
		a.fail(w, "run", code, err)
		return
	}
	a.publish("/events/job", done)
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) realtime(fn func(controller) error) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := fn(a.m)
		if errors.Is(err, machine.ErrUnsupported) {
			a.fail(w, req.URL.Path, http.StatusNotImplemented, err)
			return
		}
		if err != nil {
			a.fail(w, req.URL.Path, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// probe probes once, or a grid with grid=1. Grid results are also saved as
// grid.json in the data directory.
func (a *api) probe(w http.ResponseWriter, req *http.Request) {

	ok, name := safePath(a.dataDir, "grid.json")
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var err error
	var opt machine.ProbeGridOptions
	opt.ZeroZAxis = req.FormValue("zeroZAxis") == "1"

	parse := func(param string) (val float64) {
		if err != nil {
			return 0
		}
		val, err = strconv.ParseFloat(req.FormValue(param), 64)
		return val
	}
	opt.FeedRate = parse("feedRate")
	opt.MaxTravel = parse("maxZTravel")
	if opt.ZeroZAxis && req.FormValue("offset") != "" {
		opt.Offset = parse("offset")
	}

	grid := req.FormValue("grid") == "1"
	if grid {
		opt.DistanceX = parse("xDist")
		opt.DistanceY = parse("yDist")
		opt.Spacing = parse("spacing")
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var res interface{}
	if grid {
		res, err = a.m.ProbeZGrid(opt)
	} else {
		res, err = a.m.ProbeZ(opt.ProbeOptions)
	}
	if err != nil {
		a.fail(w, "probe", http.StatusInternalServerError, err)
		return
	}

	out := io.Writer(w)
	if grid {
		os.MkdirAll(filepath.Dir(name), 0755)
		f, err := os.Create(name)
		if err != nil {
			a.log.WithError(err).WithField("file", name).Error("create probe file")
		} else {
			defer f.Close()
			out = io.MultiWriter(w, f)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(out).Encode(res)
	if err != nil {
		a.log.WithError(err).Error("encode probe result")
	}
}

func (a *api) putFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, req.URL.Path)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	os.MkdirAll(filepath.Dir(name), 0755)
	f, err := os.Create(name)
	if err != nil {
		a.fail(w, "put", http.StatusInternalServerError, err)
		return
	}
	defer f.Close()
	_, err = io.Copy(f, req.Body)
	if err != nil {
		a.fail(w, "put", http.StatusInternalServerError, err)
		return
	}
}

func (a *api) deleteFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, req.URL.Path)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	err := os.Remove(name)
	if err != nil {
		a.fail(w, "delete", http.StatusInternalServerError, err)
		return
	}
}
