// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/camera_gimbal/internal/sensors"
	"github.com/relabs-tech/camera_gimbal/internal/share"
	"github.com/relabs-tech/camera_gimbal/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const wsWriteTimeout = time.Second

// Hub fans snapshots out to websocket clients. A client that cannot keep up
// is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) Name() string { return "websocket" }

// Publish writes s to every connected client.
func (h *Hub) Publish(s telemetry.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.WriteJSON(s); err != nil {
			log.Printf("web: websocket write error, dropping client %s: %v", c.RemoteAddr(), err)
			c.Close()
			delete(h.clients, c)
		}
	}
	return nil
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	log.Printf("web: websocket client connected from %s", conn.RemoteAddr())

	// Drain reads so close frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: websocket error: %v", err)
			}
			break
		}
	}
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Web serves the diagnostic endpoints. It only reads shared state.
type Web struct {
	Pitch  *share.Cell[int16]
	Latest *share.Cell[telemetry.Snapshot]
	Hub    *Hub
}

// LatestSink keeps the most recent snapshot for /api/status.
func (wb *Web) LatestSink() telemetry.Sink {
	return telemetry.SinkFunc{Label: "status", Fn: func(s telemetry.Snapshot) error {
		wb.Latest.Put(s)
		return nil
	}}
}

// Handler builds the route table.
func (wb *Web) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, struct {
			Pitch int16 `json:"pitch"`
		}{Pitch: wb.Pitch.Get()})
	})

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		s, ok := wb.Latest.Load()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, s)
	})

	mux.HandleFunc("/api/registers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, sensors.Registers())
	})

	if wb.Hub != nil {
		mux.HandleFunc("/ws", wb.Hub.serveWS)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := statusPage.Execute(w, struct{ Pitch int16 }{wb.Pitch.Get()}); err != nil {
			log.Printf("web: template error: %v", err)
		}
	})

	return mux
}

// Serve listens on port until ctx ends.
func (wb *Web) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           wb.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("web server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head><title>Camera Gimbal</title></head>
<body>
<h1>Camera Gimbal</h1>
<p>Pitch: <span id="pitch">{{.Pitch}}</span>&deg;</p>
<p>State: <span id="state">-</span></p>
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (ev) => {
  const s = JSON.parse(ev.data);
  document.getElementById("pitch").textContent = s.pitch;
  document.getElementById("state").textContent = s.control.state;
};
</script>
</body>
</html>
`))
