// Package spjs is a client for Serial Port JSON Server.
package spjs

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ReconnectDelay is the wait between connection attempts.
var ReconnectDelay = 3 * time.Second

// SPJS keeps a websocket connection to the server open, reconnecting as
// needed.
type SPJS struct {
	url string

	Log logrus.FieldLogger

	outgoing  chan message
	incomming chan interface{}
	closeCh   chan struct{}
}

type message struct {
	done    chan struct{}
	payload []byte
}

// New connects to the websocket url, e.g. ws://localhost:8989/ws
func New(url string) *SPJS {
	sp := &SPJS{
		url:       url,
		Log:       logrus.StandardLogger(),
		outgoing:  make(chan message, 1000),
		incomming: make(chan interface{}, 1000),
		closeCh:   make(chan struct{}),
	}

	go sp.loop()

	return sp
}

// Messages delivers every decoded server message.
func (sp *SPJS) Messages() chan interface{} {
	return sp.incomming
}

// Close stops reconnecting and drops the connection.
func (sp *SPJS) Close() error {
	close(sp.closeCh)
	return nil
}

func (sp *SPJS) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			sp.Log.WithError(err).Error("spjs read")
			return
		}
		if !bytes.HasPrefix(data, []byte("{")) {
			// echo of our own commands
			continue
		}
		val, err := parseMessage(data)
		if err != nil {
			sp.Log.WithError(err).Warn("spjs parse")
			continue
		}
		select {
		case sp.incomming <- val:
		case <-sp.closeCh:
			return
		}
	}
}

func (sp *SPJS) loop() {
	var nextUp message
	log := sp.Log.WithField("url", sp.url)

reconnect:
	for {
		select {
		case <-sp.closeCh:
			return
		default:
		}

		log.Info("connecting")
		ws, _, err := websocket.DefaultDialer.Dial(sp.url, nil)
		if err != nil {
			log.WithError(err).Error("spjs connect")
			select {
			case <-time.After(ReconnectDelay):
			case <-sp.closeCh:
				return
			}
			continue
		}
		log.Info("connected")
		ch := make(chan struct{})
		go sp.readLoop(ws, ch)
		// refresh the port list on every connect
		go sp.List()

		for {
			if nextUp.done != nil {
				err = ws.WriteMessage(websocket.TextMessage, nextUp.payload)
				if err != nil {
					log.WithError(err).Error("spjs send")
					ws.Close()
					continue reconnect
				}
				close(nextUp.done)
				nextUp.done = nil
			}

			select {
			case <-sp.closeCh:
				ws.Close()
				return
			case <-ch:
				ws.Close()
				continue reconnect
			case nextUp = <-sp.outgoing:
			}
		}
	}
}

// JSON is the payload of a sendjson command.
type JSON struct {
	Port string `json:"P"`
	Data []Data
}

type Data struct {
	Data string `json:"D"`
	ID   string `json:"Id"`
}

// SendJSON queues lines on a port and returns once the command is sent.
func (sp *SPJS) SendJSON(v JSON) {
	data, err := json.Marshal(v)
	if err != nil {
		// only plain strings are marshalled
		sp.Log.WithError(err).Panic("spjs sendjson")
		return
	}

	sp.send(append([]byte("sendjson "), data...))
}

// WriteString sends a raw server command and returns once it is sent.
func (sp *SPJS) WriteString(data string) {
	sp.send([]byte(data))
}

// List asks for the port list, delivered as a *SerialPortList.
func (sp *SPJS) List() { sp.WriteString("list") }

// Open opens port at baud. buffer names the server's flow control for the
// firmware, e.g. "grbl" or "marlin"; empty uses the server default.
func (sp *SPJS) Open(port string, baud int, buffer string) {
	cmd := "open " + port + " " + strconv.Itoa(baud)
	if buffer != "" {
		cmd += " " + buffer
	}
	sp.WriteString(cmd)
}

// Send writes data to port without queueing it behind other lines.
func (sp *SPJS) Send(port, data string) {
	sp.WriteString("send " + port + " " + data)
}

func (sp *SPJS) send(payload []byte) {
	ch := make(chan struct{})
	select {
	case sp.outgoing <- message{done: ch, payload: payload}:
	case <-sp.closeCh:
		return
	}
	select {
	case <-ch:
	case <-sp.closeCh:
	}
}
