package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/roomchat/internal/common"
)

func (h *Handler) ListRooms(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	rooms, err := h.Ctrl.ListRooms(c.Request.Context(), sess)
	if err != nil {
		h.fail(c, "list rooms", err)
		return
	}
	common.OK(c, gin.H{"rooms": rooms, "current_room_id": sess.RoomID})
}

type createRoomReq struct {
	Name string `json:"name"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req createRoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	room, err := h.Ctrl.CreateRoom(c.Request.Context(), sess, req.Name)
	if err != nil {
		h.fail(c, "create room", err)
		return
	}
	if !h.saveSession(c, sess) {
		return
	}
	c.JSON(http.StatusCreated, common.Envelope{Code: 0, Message: "ok", Data: gin.H{"room": room, "session": sess.View()}})
}

func (h *Handler) SelectRoom(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	id, ok := roomIDParam(c)
	if !ok {
		return
	}
	room, err := h.Ctrl.SelectRoom(c.Request.Context(), sess, id)
	if err != nil {
		h.fail(c, "select room", err)
		return
	}
	if !h.saveSession(c, sess) {
		return
	}
	common.OK(c, gin.H{"room": room, "session": sess.View()})
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	id, ok := roomIDParam(c)
	if !ok {
		return
	}
	if err := h.Ctrl.DeleteRoom(c.Request.Context(), sess, id); err != nil {
		h.fail(c, "delete room", err)
		return
	}
	if !h.saveSession(c, sess) {
		return
	}
	common.OK(c, gin.H{"deleted": id, "session": sess.View()})
}

func roomIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.Fail(c, http.StatusBadRequest, 10010, "invalid room id")
		return 0, false
	}
	return id, true
}
