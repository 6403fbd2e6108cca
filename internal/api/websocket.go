package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pizza-rush/internal/game"
)

const (
	// MaxWSConnectionsTotal caps all WebSocket connections.
	MaxWSConnectionsTotal = 100

	// MaxWSConnectionsPerIP caps connections per IP.
	MaxWSConnectionsPerIP = 4

	// snapshotStreamInterval: 10 frames/sec over the socket; the browser
	// interpolates between them.
	snapshotStreamInterval = 100 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin, nil) {
			return true
		}
		log.Printf("⚠️ WebSocket rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// WebSocketHub fans the snapshot stream out to connected clients.
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	// engine receives inbound input frames; set once before Run
	engine EngineInterface

	wsLimiter *WebSocketRateLimiter
}

func NewWebSocketHub(engine EngineInterface) *WebSocketHub {
	return &WebSocketHub{
		engine:     engine,
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

// Run processes register/unregister/broadcast. Call in a goroutine.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				h.wsLimiter.Release(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			count := len(h.clients)
			h.mu.Unlock()
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn, client := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.wsLimiter.Release(client.ip)
					delete(h.clients, conn)
					conn.Close()
				}
			}
			h.mu.Unlock()
			IncrementWSMessages()
		}
	}
}

// Broadcast queues a typed message for all clients. Drops when the
// channel is full (backpressure beats blocking the caller).
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg := map[string]interface{}{"event": event, "data": data}
	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- jsonBytes:
	default:
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartSnapshotStream pushes the latest snapshot to all clients at a
// fixed rate, skipping unchanged frames.
func (h *WebSocketHub) StartSnapshotStream() {
	ticker := time.NewTicker(snapshotStreamInterval)

	go func() {
		var lastSeq uint64
		for range ticker.C {
			if h.ClientCount() == 0 {
				continue
			}
			snap := h.engine.GetSnapshot()
			if snap.Sequence == lastSeq {
				continue // Nothing new since last push
			}
			lastSeq = snap.Sequence

			var cars, drones, peds int
			for _, o := range snap.Obstacles {
				switch o.Kind {
				case "car":
					cars++
				case "drone":
					drones++
				case "pedestrian":
					peds++
				}
			}
			UpdateObstacleCount("car", cars)
			UpdateObstacleCount("drone", drones)
			UpdateObstacleCount("pedestrian", peds)

			h.Broadcast("game:snapshot", snap)
		}
	}()
}

// HandleWebSocket upgrades a connection with connection limits applied.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.wsLimiter.Allow(ip) {
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	h.register <- &wsClient{conn: conn, ip: ip}

	// Inbound messages are input frames
	go func() {
		defer func() { h.unregister <- conn }()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var in game.InputState
			if err := json.Unmarshal(message, &in); err != nil {
				continue
			}
			if h.engine != nil {
				h.engine.ApplyInput(in)
			}
		}
	}()
}
