package broadcast

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// RefreshSignal tells connected clients to refetch their item lists.
const RefreshSignal = "REFRESH_DATA"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer in front of the mux.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans small text signals out to every connected websocket client.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// HandleWS upgrades the request and keeps the connection registered
// until the client goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("websocket client connected (%d total)", n)

	// Reads are discarded; the socket exists for server push only.
	// The read loop surfaces the close.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends a text signal to every connected client, dropping
// clients whose writes fail. Writes are serialized under the hub lock
// since the websocket package forbids concurrent writers per conn.
func (h *Hub) Broadcast(signal string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(signal)); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}
