package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/roomchat/internal/common"
)

func (h *Handler) ListModels(c *gin.Context) {
	common.OK(c, gin.H{"models": h.Ctrl.Catalog().List(), "default": h.Cfg.DefaultModel})
}

type selectModelReq struct {
	Model string `json:"model" binding:"required"`
}

func (h *Handler) SelectModel(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req selectModelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	m, err := h.Ctrl.SelectModel(sess, req.Model)
	if err != nil {
		h.fail(c, "select model", err)
		return
	}
	if !h.saveSession(c, sess) {
		return
	}
	common.OK(c, gin.H{"model": m})
}

type credentialReq struct {
	APIKey string `json:"api_key"`
}

func (h *Handler) SetCredential(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req credentialReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Ctrl.SetCredential(sess, req.APIKey); err != nil {
		h.fail(c, "set credential", err)
		return
	}
	if !h.saveSession(c, sess) {
		return
	}
	common.OK(c, gin.H{"session": sess.View()})
}

type preferencesReq struct {
	Theme        string `json:"theme"`
	ShowPassword *bool  `json:"show_password"`
}

func (h *Handler) SetPreferences(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req preferencesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Ctrl.SetPreferences(sess, req.Theme, req.ShowPassword); err != nil {
		h.fail(c, "set preferences", err)
		return
	}
	if !h.saveSession(c, sess) {
		return
	}
	common.OK(c, gin.H{"session": sess.View()})
}
