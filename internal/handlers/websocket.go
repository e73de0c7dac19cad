package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dvms-arcade-backend/internal/middleware"
	"dvms-arcade-backend/internal/models"
	"dvms-arcade-backend/internal/services"
)

const (
	MessageBalanceUpdate = "BALANCE_UPDATE"
	MessageRoundUpdate   = "ROUND_UPDATE"
	MessagePing          = "PING"
	MessagePong          = "PONG"

	writeWait      = 10 * time.Second
	clientQueueLen = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler pushes balance and round updates to a player's open
// connections. It implements services.Broadcaster.
type WebSocketHandler struct {
	games  *services.GameService
	hub    *WebSocketHub
	logger *zap.Logger
}

type WebSocketHub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	logger     *zap.Logger
}

type Client struct {
	UserID string
	Conn   *websocket.Conn
	send   chan *Message
}

type Message struct {
	Type   string `json:"type"`
	UserID string `json:"user_id,omitempty"`
	Data   any    `json:"data"`
}

func NewWebSocketHandler(games *services.GameService, logger *zap.Logger) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
		logger:     logger,
	}

	go hub.run()

	return &WebSocketHandler{
		games:  games,
		hub:    hub,
		logger: logger,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade to websocket", zap.String("user_id", userID), zap.Error(err))
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
		send:   make(chan *Message, clientQueueLen),
	}

	h.hub.register <- client
	go client.writePump()

	defer func() {
		h.hub.unregister <- client
	}()

	if balance, err := h.games.Balance(c.Request.Context(), userID); err == nil {
		client.queue(&Message{Type: MessageBalanceUpdate, UserID: userID, Data: balance})
	} else {
		h.logger.Warn("failed to read balance for websocket", zap.String("user_id", userID), zap.Error(err))
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("user_id", userID), zap.Error(err))
			}
			return
		}

		if msg.Type == MessagePing {
			client.queue(&Message{
				Type: MessagePong,
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
		}
	}
}

func (h *WebSocketHandler) BroadcastBalance(userID string, balance float64) {
	h.hub.publish(&Message{
		Type:   MessageBalanceUpdate,
		UserID: userID,
		Data:   gin.H{"balance": balance},
	})
}

func (h *WebSocketHandler) BroadcastRoundUpdate(userID string, round *models.MinesRoundResponse) {
	h.hub.publish(&Message{
		Type:   MessageRoundUpdate,
		UserID: userID,
		Data:   round,
	})
}

// publish never blocks the game path; a full queue drops the update.
func (hub *WebSocketHub) publish(msg *Message) {
	select {
	case hub.broadcast <- msg:
	default:
		hub.logger.Warn("websocket broadcast queue full, dropping update",
			zap.String("type", msg.Type),
			zap.String("user_id", msg.UserID))
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			conns := hub.clients[client.UserID]
			if conns == nil {
				conns = make(map[*Client]bool)
				hub.clients[client.UserID] = conns
			}
			conns[client] = true
			hub.logger.Debug("websocket client registered", zap.String("user_id", client.UserID))

		case client := <-hub.unregister:
			if conns, ok := hub.clients[client.UserID]; ok && conns[client] {
				delete(conns, client)
				if len(conns) == 0 {
					delete(hub.clients, client.UserID)
				}
				close(client.send)
				hub.logger.Debug("websocket client unregistered", zap.String("user_id", client.UserID))
			}

		case message := <-hub.broadcast:
			for client := range hub.clients[message.UserID] {
				client.queue(message)
			}
		}
	}
}

func (c *Client) queue(msg *Message) {
	select {
	case c.send <- msg:
	default:
	}
}

// writePump is the only writer on the connection; it exits and closes the
// connection once the hub closes send.
func (c *Client) writePump() {
	defer c.Conn.Close()

	for msg := range c.send {
		c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteJSON(msg); err != nil {
			return
		}
	}
	c.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
