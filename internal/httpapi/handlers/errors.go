package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/roomchat/internal/account"
	"github.com/suPer8Hu/roomchat/internal/chat"
	"github.com/suPer8Hu/roomchat/internal/common"
	"github.com/suPer8Hu/roomchat/internal/httpapi/middleware"
	"github.com/suPer8Hu/roomchat/internal/quiz"
	"github.com/suPer8Hu/roomchat/internal/session"
)

type errMapping struct {
	err    error
	status int
	code   int
}

var errMappings = []errMapping{
	{account.ErrInvalidInput, http.StatusBadRequest, 10002},
	{account.ErrWeakPassword, http.StatusBadRequest, 10003},
	{session.ErrInvalidInput, http.StatusBadRequest, 10004},
	{chat.ErrEmptyName, http.StatusBadRequest, 10005},
	{session.ErrUnknownModel, http.StatusBadRequest, 10006},
	{session.ErrWeakCredential, http.StatusBadRequest, 10007},
	{quiz.ErrInvalidAnswer, http.StatusBadRequest, 10008},
	{quiz.ErrAnswerCount, http.StatusBadRequest, 10009},
	{account.ErrInvalidCredentials, http.StatusUnauthorized, 40105},
	{session.ErrNotAuthenticated, http.StatusUnauthorized, 40104},
	{chat.ErrRoomNotFound, http.StatusNotFound, 40401},
	{chat.ErrJobNotFound, http.StatusNotFound, 40402},
	{quiz.ErrNotFound, http.StatusNotFound, 40403},
	{account.ErrDuplicateUsername, http.StatusConflict, 40901},
	{chat.ErrDuplicateName, http.StatusConflict, 40902},
	{session.ErrNoRoomSelected, http.StatusConflict, 40903},
	{session.ErrMissingCredential, http.StatusPreconditionRequired, 42801},
}

// fail writes the envelope for a domain error. Unknown errors are 500s and
// their text is only logged.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	var locked *session.LockedError
	if errors.As(err, &locked) {
		c.Header("Retry-After", strconv.Itoa(int(locked.RetryAfter.Seconds())))
		common.Fail(c, http.StatusTooManyRequests, 42902, locked.Error())
		return
	}
	for _, m := range errMappings {
		if errors.Is(err, m.err) {
			common.Fail(c, m.status, m.code, err.Error())
			return
		}
	}
	h.internalError(c, op, err)
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	slog.Error("Request failed",
		"op", op,
		"request_id", c.GetString(middleware.RequestIDKey),
		"username", c.GetString(middleware.UsernameKey),
		"error", err,
	)
	common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
}
