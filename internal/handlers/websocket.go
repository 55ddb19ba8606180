package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dare4net/earnest-gaming-backend/internal/models"
	"github.com/dare4net/earnest-gaming-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler owns the live event channel between the broker and
// both participants' clients. It implements services.Broadcaster.
type WebSocketHandler struct {
	redisService *services.RedisService
	hub          *WebSocketHub
}

// WebSocketHub serializes all connection and subscription state behind
// one goroutine, so each channel observes events in emission order.
type WebSocketHub struct {
	clients     map[string]*websocket.Conn
	matchSubs   map[string]map[string]bool // match id -> subscribed user ids
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan *Message
}

type Client struct {
	UserID string
	Conn   *websocket.Conn
}

type subscription struct {
	MatchID string
	UserID  string
}

type Message struct {
	Type    string      `json:"type"`
	UserID  string      `json:"user_id,omitempty"`
	MatchID string      `json:"match_id,omitempty"`
	Data    interface{} `json:"data"`
}

func NewWebSocketHandler(redisService *services.RedisService) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:     make(map[string]*websocket.Conn),
		matchSubs:   make(map[string]map[string]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		broadcast:   make(chan *Message, 256),
	}

	h := &WebSocketHandler{
		redisService: redisService,
		hub:          hub,
	}

	go hub.run(redisService)

	return h
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case "PING":
		client.Conn.WriteJSON(Message{
			Type: "PONG",
			Data: gin.H{"timestamp": time.Now().Unix()},
		})
	}
}

func (hub *WebSocketHub) run(redisService *services.RedisService) {
	ctx := context.Background()

	for {
		select {
		case client := <-hub.register:
			hub.clients[client.UserID] = client.Conn
			redisService.SetUserOnline(ctx, client.UserID)
			log.Printf("Client registered: %s", client.UserID)

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.UserID]; ok {
				delete(hub.clients, client.UserID)
				redisService.SetUserOffline(ctx, client.UserID)
				log.Printf("Client unregistered: %s", client.UserID)
			}

		case sub := <-hub.subscribe:
			if hub.matchSubs[sub.MatchID] == nil {
				hub.matchSubs[sub.MatchID] = make(map[string]bool)
			}
			hub.matchSubs[sub.MatchID][sub.UserID] = true

		case sub := <-hub.unsubscribe:
			if users, ok := hub.matchSubs[sub.MatchID]; ok {
				delete(users, sub.UserID)
				if len(users) == 0 {
					delete(hub.matchSubs, sub.MatchID)
				}
			}

		case message := <-hub.broadcast:
			hub.deliver(message)
		}
	}
}

// deliver is best-effort: a write failure drops the event, and the
// client reconciles through a pull query on reconnect.
func (hub *WebSocketHub) deliver(message *Message) {
	if message.UserID != "" {
		if conn, ok := hub.clients[message.UserID]; ok {
			conn.WriteJSON(message)
		}
		return
	}
	if message.MatchID != "" {
		for userID := range hub.matchSubs[message.MatchID] {
			if conn, ok := hub.clients[userID]; ok {
				conn.WriteJSON(message)
			}
		}
	}
}

// --- services.Broadcaster ---

func (h *WebSocketHandler) Subscribe(matchID, userID string) {
	h.hub.subscribe <- subscription{MatchID: matchID, UserID: userID}
}

func (h *WebSocketHandler) Unsubscribe(matchID, userID string) {
	h.hub.unsubscribe <- subscription{MatchID: matchID, UserID: userID}
}

func (h *WebSocketHandler) PublishMatch(matchID, event string, match *models.Match) {
	h.hub.broadcast <- &Message{
		Type:    event,
		MatchID: matchID,
		Data: gin.H{
			"match":     match,
			"lifecycle": match.LifecycleLabel(),
			"timestamp": time.Now().Unix(),
		},
	}
}

func (h *WebSocketHandler) PublishUser(userID, event string, payload interface{}) {
	h.hub.broadcast <- &Message{
		Type:   event,
		UserID: userID,
		Data:   payload,
	}
}
