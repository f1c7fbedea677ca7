package link

import (
	"io"
	"strings"
	"sync"
)

// device is a fake controller. Every line written to it is recorded and
// answered by respond, in order.
type device struct {
	r *io.PipeReader
	w *io.PipeWriter

	mx    sync.Mutex
	lines []string

	respond func(line string) []string
	out     chan string
}

func newDevice(respond func(string) []string) *device {
	r, w := io.Pipe()
	d := &device{r: r, w: w, respond: respond, out: make(chan string, 1024)}
	go func() {
		for s := range d.out {
			if _, err := io.WriteString(d.w, s+"\n"); err != nil {
				return
			}
		}
	}()
	return d
}

func okAll(line string) []string {
	if line == "?" {
		return []string{"<Idle|MPos:1.000,2.000,3.000|WCO:0.000,0.000,-10.000>"}
	}
	return []string{"ok"}
}

// marlinOK answers like Marlin: a position report for M114 and a busy
// keepalive while M400 waits.
func marlinOK(line string) []string {
	switch line {
	case "M114":
		return []string{"X:1.00 Y:2.00 Z:3.00 E:0.00 Count X:80 Y:160 Z:1200", "ok"}
	case "M400":
		return []string{"echo:busy: processing", "ok"}
	}
	return []string{"ok"}
}

func (d *device) Read(p []byte) (int, error) { return d.r.Read(p) }

func (d *device) Write(p []byte) (int, error) {
	line := strings.TrimSpace(string(p))
	d.mx.Lock()
	d.lines = append(d.lines, line)
	d.mx.Unlock()
	for _, s := range d.respond(line) {
		d.out <- s
	}
	return len(p), nil
}

func (d *device) Close() error {
	d.w.Close()
	return nil
}

func (d *device) Lines() []string {
	d.mx.Lock()
	defer d.mx.Unlock()
	return append([]string(nil), d.lines...)
}

// readAll keeps reading from c so acknowledgements are delivered.
func readAll(c *Conn) {
	buf := make([]byte, 1024)
	for {
		_, err := c.Read(buf)
		if err == io.ErrClosedPipe || err == io.EOF {
			return
		}
	}
}
