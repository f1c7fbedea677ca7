// Package link streams lines to a table controller with ack flow control.
//
// The controller acknowledges every line, announces a reset with its
// startup banner and reports its position on request. How it does each is
// its Dialect: Marlin, which the post processor writes for, or Grbl.
package link

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/mastercactapus/plasmapost/machine"
)

// ErrReset is returned from write methods if the controller resets before
// all lines are acknowledged.
var ErrReset = errors.New("controller reset")

// errBusy is returned for a status request that would have to wait for a
// write in progress.
var errBusy = errors.New("controller busy")

// Conn is a direct connection to a controller.
type Conn struct {
	rw      io.ReadWriter
	dialect *Dialect

	readBuf []byte
	scan    *bufio.Scanner
	ackCh   chan error
	resetCh chan struct{}
	closeCh chan struct{}

	closeOnce sync.Once

	mx  sync.Mutex
	wMx sync.Mutex

	bufferSize int
	deviceBuf  int
	lineSize   []int

	// pendingErr is a fault waiting for its ack. Only Read uses it.
	pendingErr error

	wroteLines int64
	readLines  int64
}

// NewConn speaks d over rw.
func NewConn(rw io.ReadWriter, d *Dialect) *Conn {
	return &Conn{
		scan:       bufio.NewScanner(rw),
		rw:         rw,
		dialect:    d,
		ackCh:      make(chan error),
		resetCh:    make(chan struct{}, 1),
		closeCh:    make(chan struct{}),
		bufferSize: d.BufferSize,
	}
}

// Dialect is the protocol spoken on the connection.
func (c *Conn) Dialect() *Dialect { return c.dialect }

// Close aborts any in-progress writes and closes the underlying
// ReadWriter, if it implements io.Closer.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		if closer, ok := c.rw.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

func (c *Conn) recordBufferSpace(n int) int64 {
	c.deviceBuf += n
	c.wroteLines++
	c.lineSize = append(c.lineSize, n)
	return c.wroteLines
}

func (c *Conn) full(n int) bool {
	if c.dialect.MaxLines > 0 && len(c.lineSize) >= c.dialect.MaxLines {
		return true
	}
	return c.deviceBuf+n > c.bufferSize
}

func (c *Conn) waitForBufferSpace(n int) error {
	for c.deviceBuf > 0 && c.full(n) {
		err := c.next()
		if err != nil {
			return err
		}
	}

	return nil
}

// abort fails writes waiting for acknowledgements.
func (c *Conn) abort() {
	select {
	case c.resetCh <- struct{}{}:
	default:
	}
}

func (c *Conn) reset() error {
	c.deviceBuf = 0
	c.lineSize = nil
	c.readLines = c.wroteLines
	return ErrReset
}

// next waits for one acknowledgement.
func (c *Conn) next() error {
	select {
	case <-c.closeCh:
		return io.ErrClosedPipe
	default:
	}

	select {
	case <-c.resetCh:
		return c.reset()
	default:
	}

	select {
	case <-c.closeCh:
		return io.ErrClosedPipe
	case <-c.resetCh:
		return c.reset()
	case e := <-c.ackCh:
		c.readLines++
		c.deviceBuf -= c.lineSize[0]
		c.lineSize = c.lineSize[1:]
		return e
	}
}

// waitForLine waits until line id is acknowledged, returning the first
// error seen on the way.
func (c *Conn) waitForLine(id int64) (err error) {
	for c.readLines < id {
		e := c.next()
		if e == ErrReset || e == io.ErrClosedPipe {
			return e
		}
		if err == nil {
			err = e
		}
	}
	return err
}

// writeLine blocks until line has been written to the device in full and
// returns its index.
func (c *Conn) writeLine(line []byte) (id int64, err error) {
	err = c.waitForBufferSpace(len(line))
	if err != nil {
		return 0, err
	}
	c.mx.Lock()
	_, err = c.rw.Write(line)
	c.mx.Unlock()
	if err != nil {
		return 0, err
	}
	return c.recordBufferSpace(len(line)), nil
}

func splitLinesKeepN(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		return len(data), append(data[:len(data):len(data)], '\n'), nil
	}
	return 0, nil, nil
}

// ReadFrom returns after all lines have been sent and acknowledged.
func (c *Conn) ReadFrom(r io.Reader) (n int64, err error) {
	c.wMx.Lock()
	defer c.wMx.Unlock()
	return c.readFrom(r)
}

func (c *Conn) readFrom(r io.Reader) (n int64, err error) {
	select {
	case <-c.closeCh:
		return 0, io.ErrClosedPipe
	default:
	}

	if len(c.lineSize) == 0 {
		// nothing in flight, so a reset seen since is stale
		select {
		case <-c.resetCh:
		default:
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Split(splitLinesKeepN)

	lastID := c.wroteLines
	for scanner.Scan() {
		raw := scanner.Bytes()
		line := c.dialect.clean(raw)
		if line == nil {
			continue
		}
		lastID, err = c.writeLine(line)
		if err != nil {
			return n, err
		}
		n += int64(len(raw))
		for _, extra := range c.dialect.followUp(line) {
			lastID, err = c.writeLine(extra)
			if err != nil {
				return n, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return n, err
	}

	return n, c.waitForLine(lastID)
}

// Write returns after all lines have been sent and acknowledged.
func (c *Conn) Write(p []byte) (int, error) {
	c.wMx.Lock()
	defer c.wMx.Unlock()

	n, err := c.readFrom(bytes.NewReader(p))
	return int(n), err
}

// SendRealtime writes the dialect's command for r directly to the device,
// without accounting for buffering. A status request for a dialect without
// one queues its status lines instead, and returns errBusy if another write
// is in progress.
func (c *Conn) SendRealtime(r machine.Realtime) error {
	select {
	case <-c.closeCh:
		return io.ErrClosedPipe
	default:
	}

	data, ok := c.dialect.realtime[r]
	if ok {
		c.mx.Lock()
		_, err := c.rw.Write(data)
		c.mx.Unlock()
		if err == nil && r == machine.RealtimeReset && c.dialect.resetHalts {
			c.abort()
		}
		return err
	}
	if r == machine.RealtimeStatus && len(c.dialect.statusLines) > 0 {
		return c.writeIfIdle(bytes.Join(c.dialect.statusLines, nil))
	}
	return errors.Wrapf(machine.ErrUnsupported, "%s on %s", r, c.dialect)
}

// queryStatus writes the status lines after any write in progress.
func (c *Conn) queryStatus() error {
	c.wMx.Lock()
	defer c.wMx.Unlock()
	_, err := c.readFrom(bytes.NewReader(bytes.Join(c.dialect.statusLines, nil)))
	return err
}

// writeIfIdle writes p unless another write holds the connection.
func (c *Conn) writeIfIdle(p []byte) error {
	if !c.wMx.TryLock() {
		return errBusy
	}
	defer c.wMx.Unlock()
	_, err := c.readFrom(bytes.NewReader(p))
	return err
}

// Read reads the next line from the device. Acknowledgements are passed
// to the writer; every line, including them, is also returned.
func (c *Conn) Read(p []byte) (n int, err error) {
	select {
	case <-c.closeCh:
		return 0, io.ErrClosedPipe
	default:
	}

	if c.readBuf != nil {
		if len(p) < len(c.readBuf) {
			return 0, io.ErrShortBuffer
		}
		n = copy(p, c.readBuf)
		c.readBuf = nil
		return n, nil
	}
	if !c.scan.Scan() {
		err = c.scan.Err()
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	data := bytes.TrimSpace(c.scan.Bytes())

	var ack bool
	var ackErr error
	switch c.dialect.classify(data) {
	case replyAck:
		ack = true
		ackErr, c.pendingErr = c.pendingErr, nil
	case replyAckError:
		ack = true
		ackErr = errors.New(strings.TrimSpace(string(data)))
		c.pendingErr = nil
	case replyFault:
		if c.pendingErr == nil {
			c.pendingErr = errors.New(strings.TrimSpace(string(data)))
		}
	case replyReset:
		c.pendingErr = nil
		c.abort()
	}
	if ack {
		select {
		case c.ackCh <- ackErr:
		case <-c.closeCh:
			return 0, io.ErrClosedPipe
		}
	}

	if len(p) < len(data) {
		c.readBuf = append([]byte(nil), data...)
		return 0, io.ErrShortBuffer
	}

	return copy(p, data), nil
}
