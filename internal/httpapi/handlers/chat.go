package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/roomchat/internal/common"
)

const maxIdempotencyKey = 128

type sendMessageReq struct {
	Message string `json:"message"`
}

func (h *Handler) ListChatMessages(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	msgs, err := h.Ctrl.History(c.Request.Context(), sess)
	if err != nil {
		h.fail(c, "history", err)
		return
	}
	common.OK(c, gin.H{"room_id": sess.RoomID, "messages": msgs})
}

func (h *Handler) ClearChatMessages(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	n, err := h.Ctrl.ClearHistory(c.Request.Context(), sess)
	if err != nil {
		h.fail(c, "clear history", err)
		return
	}
	common.OK(c, gin.H{"room_id": sess.RoomID, "deleted": n})
}

// SendChatMessage blocks for the upstream call. A failed call still
// returns 200 with the error text as the stored reply.
func (h *Handler) SendChatMessage(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	msg, err := h.Ctrl.Send(c.Request.Context(), sess, req.Message)
	if err != nil {
		h.fail(c, "send message", err)
		return
	}
	common.OK(c, gin.H{
		"message": msg,
		"model":   h.Ctrl.Catalog().DisplayName(msg.Model),
	})
}

func (h *Handler) SendChatMessageAsync(c *gin.Context) {
	if h.Jobs == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "async send is disabled")
		return
	}
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(key) > maxIdempotencyKey {
		common.Fail(c, http.StatusBadRequest, 10011, "idempotency key too long")
		return
	}

	job, created, err := h.Ctrl.Enqueue(c.Request.Context(), sess, req.Message, key)
	if err != nil {
		h.fail(c, "enqueue", err)
		return
	}

	// a replayed key returns the original job without publishing again
	if created {
		if err := h.Jobs.PublishJob(c.Request.Context(), job.ID); err != nil {
			slog.Error("PublishJob failed", "job_id", job.ID, "username", sess.Username, "error", err)
			common.Fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
			return
		}
	}

	c.JSON(http.StatusAccepted, common.Envelope{Code: 0, Message: "ok", Data: gin.H{"job_id": job.ID, "created": created}})
}

func (h *Handler) GetChatJob(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	j, err := h.Ctrl.Job(c.Request.Context(), sess, c.Param("job_id"))
	if err != nil {
		h.fail(c, "get job", err)
		return
	}
	common.OK(c, gin.H{
		"job": gin.H{
			"id":                j.ID,
			"room_id":           j.RoomID,
			"model":             j.Model,
			"status":            j.Status,
			"result_message_id": j.ResultMessageID,
			"error":             j.Error,
			"created_at":        j.CreatedAt,
			"updated_at":        j.UpdatedAt,
		},
	})
}
