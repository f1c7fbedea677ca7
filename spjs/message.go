package spjs

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// DataFrame is output read from a serial port.
type DataFrame struct {
	Port string `json:"P"`
	Data string `json:"D"`
}

// CmdStatus reports progress of queued lines, e.g. Queued, Complete or
// WipedQueue.
type CmdStatus struct {
	Cmd        string
	Port       string `json:"P"`
	QueueCount int    `json:"QCnt"`
	ID         string `json:"Id"`
}

type ErrorMessage struct {
	Error string
}

type SerialPortList struct {
	SerialPorts []SerialPort
}

// Find returns the port called name.
func (l SerialPortList) Find(name string) (SerialPort, bool) {
	for _, p := range l.SerialPorts {
		if p.Name == name {
			return p, true
		}
	}
	return SerialPort{}, false
}

type SerialPort struct {
	Name            string
	Friendly        string
	IsOpen          bool
	Baud            int
	BufferAlgorithm string
	Ver             float64
}

// messageKeys maps the field that identifies a message to its type, in the
// order they are checked.
var messageKeys = []struct {
	key string
	new func() interface{}
}{
	{"Error", func() interface{} { return &ErrorMessage{} }},
	{"SerialPorts", func() interface{} { return &SerialPortList{} }},
	{"Cmd", func() interface{} { return &CmdStatus{} }},
	{"D", func() interface{} { return &DataFrame{} }},
}

func parseMessage(data []byte) (interface{}, error) {
	var msg map[string]json.RawMessage
	err := json.Unmarshal(data, &msg)
	if err != nil {
		return nil, errors.Wrap(err, "decode message")
	}

	for _, k := range messageKeys {
		if msg[k.key] == nil {
			continue
		}
		val := k.new()
		err = json.Unmarshal(data, val)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s message", k.key)
		}
		return val, nil
	}

	return nil, errors.New("unknown message: " + string(data))
}
