package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/roomchat/internal/common"
	"github.com/suPer8Hu/roomchat/internal/config"
	"github.com/suPer8Hu/roomchat/internal/httpapi/middleware"
	"github.com/suPer8Hu/roomchat/internal/session"
)

// JobPublisher enqueues async send jobs. Nil disables the async endpoint.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Handler struct {
	Cfg      config.Config
	Ctrl     *session.Controller
	Sessions session.Store
	Jobs     JobPublisher
}

func NewHandler(cfg config.Config, ctrl *session.Controller, sessions session.Store, jobs JobPublisher) *Handler {
	return &Handler{Cfg: cfg, Ctrl: ctrl, Sessions: sessions, Jobs: jobs}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"message": "pong"})
}

// currentSession loads the session named by the token. A session that was
// logged out, expired, or belongs to another user is rejected.
func (h *Handler) currentSession(c *gin.Context) (*session.Session, bool) {
	sid := c.GetString(middleware.SessionIDKey)
	sess, err := h.Sessions.Load(c.Request.Context(), sid)
	if errors.Is(err, session.ErrSessionNotFound) {
		common.Fail(c, http.StatusUnauthorized, 40103, "session expired")
		return nil, false
	}
	if err != nil {
		h.internalError(c, "load session", err)
		return nil, false
	}
	if !sess.LoggedIn || sess.Username != c.GetString(middleware.UsernameKey) {
		common.Fail(c, http.StatusUnauthorized, 40104, session.ErrNotAuthenticated.Error())
		return nil, false
	}
	return sess, true
}

func (h *Handler) saveSession(c *gin.Context, sess *session.Session) bool {
	if err := h.Sessions.Save(c.Request.Context(), sess); err != nil {
		h.internalError(c, "save session", err)
		return false
	}
	return true
}
