package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tour-backend/middleware"
	"tour-backend/services"
	"tour-backend/utils"
)

type MarkReadPayload struct {
	IsRead *bool `json:"is_read"`
}

type MessageController struct {
	MessageSvc *services.MessageService
}

func NewMessageController(svc *services.MessageService) *MessageController {
	return &MessageController{MessageSvc: svc}
}

// CreateMessage: POST /api/messages
func (mc *MessageController) CreateMessage(c *gin.Context) {
	var in services.MessageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	m, err := mc.MessageSvc.CreateMessage(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, gin.H{"id": m.ID})
}

// GetMessages: GET /api/admin/messages?unread=true
func (mc *MessageController) GetMessages(c *gin.Context) {
	list, err := mc.MessageSvc.ListMessages(c.Request.Context(), middleware.CallerFrom(c), c.Query("unread") == "true")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

// MarkRead: PATCH /api/admin/messages/:id/read; an empty body marks as read.
func (mc *MessageController) MarkRead(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var p MarkReadPayload
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&p); err != nil {
			respondInvalidPayload(c, err)
			return
		}
	}
	read := true
	if p.IsRead != nil {
		read = *p.IsRead
	}
	m, err := mc.MessageSvc.MarkRead(c.Request.Context(), middleware.CallerFrom(c), id, read)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, m)
}

func (mc *MessageController) DeleteMessage(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := mc.MessageSvc.DeleteMessage(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}
