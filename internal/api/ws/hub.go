package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/pkg/contracts/events"
)

// client serializa as escritas numa conexão (gorilla aceita um escritor por vez)
type client struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (c *client) write(messageType int, b []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(messageType, b)
}

// Hub gerencia conexões WebSocket e assinaturas por jogo
// subs: eventID (ou "*") -> conjunto de clientes
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	subs     map[string]map[*client]struct{}
}

// NewHub cria o hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão
// Cada cliente pode assinar vários eventIDs
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.EventID == "" {
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.EventID]; !ok {
				h.subs[msg.EventID] = make(map[*client]struct{})
			}
			h.subs[msg.EventID][c] = struct{}{}
			h.mu.Unlock()
			_ = c.write(websocket.TextMessage, ack("subscribed", msg.EventID))
		case "unsubscribe":
			h.remove(c, msg.EventID)
			_ = c.write(websocket.TextMessage, ack("unsubscribed", msg.EventID))
		case "ping":
			_ = c.write(websocket.TextMessage, ack("pong", ""))
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[eventID]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, eventID)
		}
	}
}

func ack(typ, eventID string) []byte {
	b, _ := json.Marshal(ClientMsg{Type: typ, EventID: eventID})
	return b
}

// Broadcast envia o envelope aos inscritos no jogo e aos inscritos em "*"
// Cada cliente recebe no máximo uma cópia
func (h *Hub) Broadcast(env events.Envelope) {
	h.mu.RLock()
	targets := make(map[*client]struct{}, len(h.subs[env.EventID])+len(h.subs[AllEvents]))
	for c := range h.subs[env.EventID] {
		targets[c] = struct{}{}
	}
	for c := range h.subs[AllEvents] {
		targets[c] = struct{}{}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(env)
	if err != nil {
		h.log.Warn("ws marshal envelope", zap.Error(err))
		return
	}
	for c := range targets {
		if err := c.write(websocket.TextMessage, b); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
		}
	}
}

// Subscribers conta as conexões inscritas num eventID
func (h *Hub) Subscribers(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[eventID])
}
