package messaging

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type SSEClient struct {
	UserID  uuid.UUID
	Channel chan *model.Notification
}

// SSEHub fans notifications out to every open stream a user has.
type SSEHub struct {
	clients    map[uuid.UUID][]*SSEClient
	register   chan *SSEClient
	unregister chan *SSEClient
	broadcast  chan *model.Notification
	logger     *zap.Logger
	mu         sync.RWMutex
}

func NewSSEHub(logger *zap.Logger) *SSEHub {
	return &SSEHub{
		clients:    make(map[uuid.UUID][]*SSEClient),
		register:   make(chan *SSEClient),
		unregister: make(chan *SSEClient),
		broadcast:  make(chan *model.Notification, 100),
		logger:     logger,
	}
}

func (h *SSEHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Debug("sse client registered", zap.String("user_id", client.UserID.String()))

		case client := <-h.unregister:
			h.mu.Lock()
			userClients := h.clients[client.UserID]
			for i, c := range userClients {
				if c == client {
					h.clients[client.UserID] = append(userClients[:i], userClients[i+1:]...)
					break
				}
			}
			h.mu.Unlock()
			close(client.Channel)
			h.logger.Debug("sse client unregistered", zap.String("user_id", client.UserID.String()))

		case notification := <-h.broadcast:
			h.mu.RLock()
			clients := h.clients[notification.UserID]
			for _, client := range clients {
				select {
				case client.Channel <- notification:
				default:
					// channel full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *SSEHub) RegisterClient(userID uuid.UUID) *SSEClient {
	client := &SSEClient{
		UserID:  userID,
		Channel: make(chan *model.Notification, 10),
	}
	h.register <- client
	return client
}

func (h *SSEHub) UnregisterClient(client *SSEClient) {
	h.unregister <- client
}

func (h *SSEHub) SendToUser(notification *model.Notification) {
	h.broadcast <- notification
}
