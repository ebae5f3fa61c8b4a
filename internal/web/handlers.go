package web

import (
	"encoding/json"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/operator"
)

// maxCommandBytes bounds the body of POST /api/command.
const maxCommandBytes = 1 << 10

// CommandSink accepts operator commands for the control loop.
type CommandSink interface {
	Submit(cmd operator.Command) bool
}

// CommandRequest is the JSON body of POST /api/command.
type CommandRequest struct {
	Command string `json:"command"`
}

// CommandResponse acknowledges a queued command.
type CommandResponse struct {
	Status string `json:"status"`
	Kind   string `json:"kind"`
	Raw    string `json:"raw"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Status      StatusSource
	Commands    CommandSink
	staticFS    fs.FS
	upgrader    websocket.Upgrader
}

// NewHandlers creates handlers with the given dependencies.
// If commands is nil, POST /api/command returns 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, status StatusSource, commands CommandSink, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Status:      status,
		Commands:    commands,
		staticFS:    staticFS,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleStatus returns the latest machine snapshot as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if h.Status == nil {
		http.Error(w, "status not available", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Status.Snapshot())
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// readCommandLine extracts the operator line from a JSON or plain text body.
func readCommandLine(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return commandLine(r.Header.Get("Content-Type"), body)
}

func commandLine(contentType string, body []byte) (string, error) {
	if strings.HasPrefix(contentType, "application/json") {
		var req CommandRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return "", err
		}
		return req.Command, nil
	}
	return string(body), nil
}

// HandleCommand handles POST /api/command. The body is either
// {"command":"H"} or a plain text operator line.
func (h *Handlers) HandleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCommandBytes)
	line, err := readCommandLine(r)
	if err != nil {
		http.Error(w, "invalid command body", http.StatusBadRequest)
		return
	}

	cmd := operator.Parse(line)
	if cmd.Kind == operator.None {
		http.Error(w, "unrecognized command", http.StatusBadRequest)
		return
	}
	if h.Commands == nil {
		http.Error(w, "control loop not running", http.StatusServiceUnavailable)
		return
	}
	if !h.Commands.Submit(cmd) {
		http.Error(w, "command queue full", http.StatusServiceUnavailable)
		return
	}
	debug.Verbose("Web: queued %s (%q)", cmd.Kind, cmd.Raw)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(CommandResponse{Status: "queued", Kind: cmd.Kind.String(), Raw: cmd.Raw})
}

// HandleStatusStream handles GET /api/events for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
