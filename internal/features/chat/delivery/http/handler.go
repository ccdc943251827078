package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/middleware"
	channelservice "agrihub-backend/internal/features/channel/service"
	"agrihub-backend/internal/features/chat/models"
	"agrihub-backend/internal/features/chat/service"
)

type ChatHandler struct {
	service    service.ChatService
	subscriber *service.Subscriber
	registry   *channelservice.Registry
}

func NewChatHandler(chatService service.ChatService, subscriber *service.Subscriber, registry *channelservice.Registry) *ChatHandler {
	return &ChatHandler{
		service:    chatService,
		subscriber: subscriber,
		registry:   registry,
	}
}

func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	chat := router.Group("/chat")
	chat.Use(middleware.RequireAuth())
	{
		chat.GET("/channels/:id/messages", h.history)
		chat.POST("/channels/:id/messages", h.send)
		chat.GET("/channels/:id/stream", h.stream)
		chat.DELETE("/messages/:id", h.deleteMessage)
	}
}

// @Summary Channel history
// @Description Recent messages for a channel, oldest first
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Channel ID"
// @Success 200 {array} models.ChatMessage
// @Failure 403 {object} middleware.ErrorResponse "Access denied"
// @Failure 404 {object} middleware.ErrorResponse "Unknown channel"
// @Router /chat/channels/{id}/messages [get]
func (h *ChatHandler) history(c *gin.Context) {
	access := middleware.CurrentAccess(c)

	msgs, err := h.service.History(c.Request.Context(), c.Param("id"), access.Role, access.AllowedChannels)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// @Summary Send message
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Channel ID"
// @Param request body models.SendMessageRequest true "Message text"
// @Success 201 {object} models.ChatMessage
// @Failure 403 {object} middleware.ErrorResponse "Access denied"
// @Failure 404 {object} middleware.ErrorResponse "Unknown channel"
// @Router /chat/channels/{id}/messages [post]
func (h *ChatHandler) send(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	access := middleware.CurrentAccess(c)

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	sender := service.Sender{
		UID:         id.UID,
		DisplayName: id.DisplayName,
		Role:        access.Role,
	}
	msg, err := h.service.Send(c.Request.Context(), c.Param("id"), sender, access.AllowedChannels, req.Text)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// @Summary Stream channel messages
// @Description Server-sent events stream; every event carries the channel's full current message set
// @Tags chat
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path string true "Channel ID"
// @Success 200 {string} string "SSE stream of message snapshots"
// @Failure 403 {object} middleware.ErrorResponse "Access denied"
// @Failure 404 {object} middleware.ErrorResponse "Unknown channel"
// @Router /chat/channels/{id}/stream [get]
func (h *ChatHandler) stream(c *gin.Context) {
	access := middleware.CurrentAccess(c)

	// Single-producer latest-wins buffer: the subscription goroutine is the
	// only writer, so draining one slot before re-sending cannot race.
	snapshots := make(chan []models.ChatMessage, 1)
	feed := service.NewFeed(h.subscriber, h.registry, func(msgs []models.ChatMessage) {
		select {
		case snapshots <- msgs:
		default:
			select {
			case <-snapshots:
			default:
			}
			select {
			case snapshots <- msgs:
			default:
			}
		}
	})
	defer feed.Close()

	// Denial happens before the response switches to an event stream, so the
	// client still gets a proper status code.
	if err := feed.Select(c.Request.Context(), c.Param("id"), access.Role, access.AllowedChannels); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msgs := <-snapshots:
			if msgs == nil {
				msgs = []models.ChatMessage{}
			}
			c.SSEvent("snapshot", msgs)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// @Summary Delete message
// @Description Remove a message; author or admin only
// @Tags chat
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 204 "Message removed"
// @Failure 403 {object} middleware.ErrorResponse "Not the author"
// @Failure 404 {object} middleware.ErrorResponse "Unknown message"
// @Router /chat/messages/{id} [delete]
func (h *ChatHandler) deleteMessage(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	access := middleware.CurrentAccess(c)

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), id.UID, access.Role); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
