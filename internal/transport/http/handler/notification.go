package handler

import (
	"github.com/gin-gonic/gin"

	"healthhub/internal/app"
	"healthhub/internal/transport/http/response"
)

type NotificationHandler struct {
	notificationService *app.NotificationService
}

func NewNotificationHandler(notificationService *app.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) ListUnread(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	feed, err := h.notificationService.Unread(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "list notifications failed")
		return
	}
	response.OK(c, feed)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.notificationService.MarkRead(c.Request.Context(), userID, id); err != nil {
		writeError(c, err, "mark notification read failed")
		return
	}
	response.OK(c, gin.H{"read_notification_id": id})
}
