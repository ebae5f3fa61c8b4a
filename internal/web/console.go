package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/operator"
)

const (
	consoleReadLimit  = 1 << 10
	consolePongWait   = 60 * time.Second
	consolePingPeriod = 30 * time.Second
	consoleWriteWait  = 10 * time.Second
)

// ConsoleReply answers every line received on the websocket console.
type ConsoleReply struct {
	Type  string `json:"type"` // "ack"
	Kind  string `json:"kind"`
	Raw   string `json:"raw"`
	Error string `json:"error,omitempty"`
}

// HandleConsole upgrades GET /api/console to a websocket. Each text message
// is an operator line; broadcaster events are pushed to the client.
func (h *Handlers) HandleConsole(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.Verbose("Web: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	replies := make(chan ConsoleReply, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.consoleWrite(conn, events, replies)
	}()

	h.consoleRead(conn, replies)
	close(replies)
	<-done
}

func (h *Handlers) consoleRead(conn *websocket.Conn, replies chan<- ConsoleReply) {
	conn.SetReadLimit(consoleReadLimit)
	conn.SetReadDeadline(time.Now().Add(consolePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(consolePongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				debug.Verbose("Web: console read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(consolePongWait))

		cmd := operator.Parse(string(message))
		reply := ConsoleReply{Type: "ack", Kind: cmd.Kind.String(), Raw: cmd.Raw}
		switch {
		case cmd.Kind == operator.None:
			reply.Error = "unrecognized command"
		case h.Commands == nil:
			reply.Error = "control loop not running"
		case !h.Commands.Submit(cmd):
			reply.Error = "command queue full"
		}
		select {
		case replies <- reply:
		default:
		}
	}
}

// consoleWrite owns all writes to conn. It returns when replies is closed
// or a write fails.
func (h *Handlers) consoleWrite(conn *websocket.Conn, events <-chan string, replies <-chan ConsoleReply) {
	ticker := time.NewTicker(consolePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case reply, ok := <-replies:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(consoleWriteWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			data, _ := json.Marshal(reply)
			if !h.consoleSend(conn, websocket.TextMessage, data) {
				return
			}
		case msg, ok := <-events:
			if !ok {
				return
			}
			if !h.consoleSend(conn, websocket.TextMessage, []byte(msg)) {
				return
			}
		case <-ticker.C:
			if !h.consoleSend(conn, websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (h *Handlers) consoleSend(conn *websocket.Conn, kind int, data []byte) bool {
	conn.SetWriteDeadline(time.Now().Add(consoleWriteWait))
	if err := conn.WriteMessage(kind, data); err != nil {
		debug.Verbose("Web: console write error: %v", err)
		return false
	}
	return true
}
