package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/roomchat/internal/auth"
	"github.com/suPer8Hu/roomchat/internal/common"
	"github.com/suPer8Hu/roomchat/internal/httpapi/middleware"
	"github.com/suPer8Hu/roomchat/internal/session"
)

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Ctrl.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		h.fail(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, common.Envelope{Code: 0, Message: "ok", Data: gin.H{"username": strings.TrimSpace(req.Username)}})
}

// Login authenticates and returns a token bound to a session. A still
// valid token on the request keeps its session, so preferences carry over
// from before logout.
func (h *Handler) Login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	ctx := c.Request.Context()
	sess := h.previousSession(c)
	if sess == nil {
		var err error
		if sess, err = session.New(h.Cfg.DefaultModel); err != nil {
			h.internalError(c, "new session", err)
			return
		}
	}

	if err := h.Ctrl.Login(ctx, sess, req.Username, req.Password); err != nil {
		h.fail(c, "login", err)
		return
	}
	if !h.saveSession(c, sess) {
		return
	}

	token, err := auth.SignJWT(sess.Username, sess.ID, h.Cfg.JWTSecret, h.Cfg.SessionTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}
	common.OK(c, gin.H{"token": token, "session": sess.View()})
}

func (h *Handler) previousSession(c *gin.Context) *session.Session {
	tok := middleware.BearerToken(c)
	if tok == "" {
		return nil
	}
	claims, err := auth.ParseJWT(tok, h.Cfg.JWTSecret)
	if err != nil {
		return nil
	}
	sess, err := h.Sessions.Load(c.Request.Context(), claims.SessionID)
	if err != nil {
		if !errors.Is(err, session.ErrSessionNotFound) {
			slog.Warn("Ignoring previous session", "sid", claims.SessionID, "error", err)
		}
		return nil
	}
	return sess
}

func (h *Handler) Logout(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	h.Ctrl.Logout(sess)
	if !h.saveSession(c, sess) {
		return
	}
	common.OK(c, gin.H{"session": sess.View()})
}

func (h *Handler) Me(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	common.OK(c, gin.H{"session": sess.View()})
}
