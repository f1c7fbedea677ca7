package link

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastercactapus/plasmapost/machine"
)

func TestConn_ReadFrom(t *testing.T) {
	d := newDevice(okAll)
	c := NewConn(d, Grbl)
	defer c.Close()
	go readAll(c)

	var prog strings.Builder
	var exp []string
	for i := 0; i < 50; i++ {
		line := fmt.Sprintf("G1 X%d.000 Y%d.000", i, i*2)
		exp = append(exp, line)
		prog.WriteString(line + "\n")
	}

	n, err := c.ReadFrom(strings.NewReader(prog.String()))
	require.NoError(t, err)
	assert.EqualValues(t, prog.Len(), n)
	assert.Equal(t, exp, d.Lines())
	assert.Equal(t, 0, c.deviceBuf)
}

func TestConn_NoTrailingNewline(t *testing.T) {
	d := newDevice(okAll)
	c := NewConn(d, Grbl)
	defer c.Close()
	go readAll(c)

	_, err := c.Write([]byte("G90\n\nM117 Done"))
	require.NoError(t, err)
	assert.Equal(t, []string{"G90", "M117 Done"}, d.Lines())
}

func TestConn_ErrorAck(t *testing.T) {
	d := newDevice(func(line string) []string {
		if line == "G54" {
			return []string{"error:22"}
		}
		return []string{"ok"}
	})
	c := NewConn(d, Grbl)
	defer c.Close()
	go readAll(c)

	_, err := c.Write([]byte("G90\nG54\nG21\n"))
	assert.EqualError(t, err, "error:22")
}

func TestConn_Reset(t *testing.T) {
	d := newDevice(func(line string) []string {
		if line == "M5" {
			return []string{"Grbl 1.1h ['$' for help]"}
		}
		return []string{"ok"}
	})
	c := NewConn(d, Grbl)
	defer c.Close()
	go readAll(c)

	_, err := c.Write([]byte("G90\nM5\n"))
	assert.Equal(t, ErrReset, err)

	_, err = c.Write([]byte("G90\n"))
	assert.NoError(t, err)
}

func TestConn_Closed(t *testing.T) {
	c := NewConn(newDevice(okAll), Grbl)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Write([]byte("G90\n"))
	assert.Error(t, err)
	assert.Error(t, c.SendRealtime(machine.RealtimeStatus))
}

func TestConn_MarlinFault(t *testing.T) {
	d := newDevice(func(line string) []string {
		if strings.HasPrefix(line, "M3") {
			return []string{`echo:Unknown command: "M3 V120"`, "ok"}
		}
		return []string{"ok"}
	})
	c := NewConn(d, Marlin)
	defer c.Close()
	go readAll(c)

	_, err := c.Write([]byte("G90\nM3 V120\nG21\n"))
	assert.EqualError(t, err, `echo:Unknown command: "M3 V120"`)
	assert.Equal(t, []string{"G90", "M3 V120"}, d.Lines(), "stops at the failed line")

	_, err = c.Write([]byte("G21\n"))
	assert.NoError(t, err, "fault is cleared by its ack")
}

func TestConn_MarlinOneLineInFlight(t *testing.T) {
	d := newDevice(func(string) []string { return nil })
	c := NewConn(d, Marlin)
	defer c.Close()
	go readAll(c)

	done := make(chan error, 1)
	go func() {
		_, err := c.Write([]byte("G90\nG21\nG0 X1.000\n"))
		done <- err
	}()

	for i := 1; i <= 3; i++ {
		require.Eventually(t, func() bool { return len(d.Lines()) == i }, time.Second, time.Millisecond)
		assert.Never(t, func() bool { return len(d.Lines()) > i }, 50*time.Millisecond, 5*time.Millisecond)
		d.out <- "ok"
	}
	require.NoError(t, <-done)
	assert.Equal(t, []string{"G90", "G21", "G0 X1.000"}, d.Lines())
}

func TestConn_MarlinHalted(t *testing.T) {
	d := newDevice(func(line string) []string {
		if line == "M5" {
			return []string{"Error:Printer halted. kill() called!"}
		}
		return []string{"ok"}
	})
	c := NewConn(d, Marlin)
	defer c.Close()
	go readAll(c)

	_, err := c.Write([]byte("G90\nM5\nG21\n"))
	assert.Equal(t, ErrReset, err)
}

func TestConn_StaleBanner(t *testing.T) {
	d := newDevice(okAll)
	c := NewConn(d, Marlin)
	defer c.Close()
	go readAll(c)

	d.out <- "start"
	assert.Eventually(t, func() bool { return len(c.resetCh) == 1 }, time.Second, time.Millisecond)

	_, err := c.Write([]byte("G90\n"))
	assert.NoError(t, err)
}

func TestConn_SendRealtime(t *testing.T) {
	d := newDevice(func(string) []string { return nil })
	c := NewConn(d, Grbl)
	defer c.Close()
	go readAll(c)

	require.NoError(t, c.SendRealtime(machine.RealtimeHold))
	require.NoError(t, c.SendRealtime(machine.RealtimeResume))
	assert.Equal(t, []string{"!", "~"}, d.Lines())

	d = newDevice(marlinOK)
	c = NewConn(d, Marlin)
	defer c.Close()
	go readAll(c)

	err := c.SendRealtime(machine.RealtimeHold)
	assert.True(t, errors.Is(err, machine.ErrUnsupported))
	assert.Contains(t, err.Error(), "hold on marlin")

	require.NoError(t, c.SendRealtime(machine.RealtimeStatus))
	assert.Equal(t, []string{"M400", "M114"}, d.Lines())

	c.wMx.Lock()
	assert.Equal(t, errBusy, c.SendRealtime(machine.RealtimeStatus))
	c.wMx.Unlock()
}

func TestConn_MarlinResetAbortsWrite(t *testing.T) {
	d := newDevice(func(line string) []string {
		if line == "G4 P60000" || line == "M112" {
			return nil
		}
		return []string{"ok"}
	})
	c := NewConn(d, Marlin)
	defer c.Close()
	go readAll(c)

	done := make(chan error, 1)
	go func() {
		_, err := c.Write([]byte("G90\nG4 P60000\nG21\n"))
		done <- err
	}()
	require.Eventually(t, func() bool { return len(d.Lines()) == 2 }, time.Second, time.Millisecond)

	require.NoError(t, c.SendRealtime(machine.RealtimeReset))
	assert.Equal(t, ErrReset, <-done)
	assert.Equal(t, "M112", d.Lines()[2])
}
