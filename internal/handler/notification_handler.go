package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/messaging"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/middleware"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type notificationService interface {
	List(userID uuid.UUID) (*model.NotificationList, error)
	MarkRead(notificationID, userID uuid.UUID) error
	MarkAllRead(userID uuid.UUID) error
}

type NotificationHandler struct {
	notifications notificationService
	sseHub        *messaging.SSEHub
}

func NewNotificationHandler(notifications notificationService, sseHub *messaging.SSEHub) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		sseHub:        sseHub,
	}
}

// Handles GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	list, err := h.notifications.List(claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, list)
}

// Handles POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid notification id")
		return
	}

	if err := h.notifications.MarkRead(id, claims.UserID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondMessage(c, "Marked as read")
}

// Handles POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	if err := h.notifications.MarkAllRead(claims.UserID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondMessage(c, "All marked as read")
}

// Handles GET /api/notifications/stream. Holds the connection open and pushes
// notifications as SSE events until the client goes away.
func (h *NotificationHandler) Stream(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	client := h.sseHub.RegisterClient(claims.UserID)
	defer h.sseHub.UnregisterClient(client)

	c.SSEvent("connected", gin.H{"status": "connected", "user_id": claims.UserID.String()})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case notification, ok := <-client.Channel:
			if !ok {
				return
			}
			data, _ := json.Marshal(notification)
			c.SSEvent("notification", string(data))
			c.Writer.Flush()
		}
	}
}
