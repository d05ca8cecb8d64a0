package handler

import (
	"github.com/gin-gonic/gin"

	"healthhub/internal/app"
	"healthhub/internal/model"
	"healthhub/internal/transport/http/response"
)

// ChatHandler serves one chat view. The widget and the chat page each get a
// handler over their own ChatService.
type ChatHandler struct {
	chatService *app.ChatService
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var form model.IntakeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		writeBindError(c, err)
		return
	}

	snapshot, err := h.chatService.StartSession(c.Request.Context(), userID, form)
	if err != nil {
		writeError(c, err, "create health session failed")
		return
	}
	response.OK(c, snapshot)
}

func (h *ChatHandler) CheckSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	session, err := h.chatService.CheckSession(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "validate health session failed")
		return
	}
	response.OK(c, session)
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.chatService.EndSession(c.Request.Context(), userID); err != nil {
		writeError(c, err, "delete health session failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	snapshot, err := h.chatService.LoadHistory(c.Request.Context(), userID)
	if err != nil {
		h.writeSnapshotError(c, err, "load history failed", snapshot)
		return
	}
	response.OK(c, snapshot)
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	response.OK(c, h.chatService.Snapshot(userID))
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	snapshot, err := h.chatService.Send(c.Request.Context(), userID, req.Content)
	if err != nil {
		h.writeSnapshotError(c, err, "send message failed", snapshot)
		return
	}
	response.OK(c, snapshot)
}

func (h *ChatHandler) RetryMessage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	snapshot, err := h.chatService.Retry(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeSnapshotError(c, err, "retry message failed", snapshot)
		return
	}
	response.OK(c, snapshot)
}

func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	snapshot, err := h.chatService.DeleteMessage(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err, "delete message failed")
		return
	}
	response.OK(c, snapshot)
}

// writeSnapshotError keeps the conversation in the error response, so the
// view can show the failed record next to the notification.
func (h *ChatHandler) writeSnapshotError(c *gin.Context, err error, fallback string, snapshot *app.ChatSnapshot) {
	if snapshot == nil {
		writeError(c, err, fallback)
		return
	}
	writeErrorWithData(c, err, fallback, snapshot)
}
