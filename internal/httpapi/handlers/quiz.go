package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/roomchat/internal/common"
	"github.com/suPer8Hu/roomchat/internal/quiz"
)

func (h *Handler) ListQuizzes(c *gin.Context) {
	type summary struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	all := quiz.All()
	out := make([]summary, 0, len(all))
	for _, q := range all {
		out = append(out, summary{ID: q.ID, Title: q.Title})
	}
	common.OK(c, gin.H{"quizzes": out})
}

func (h *Handler) GetQuiz(c *gin.Context) {
	q, err := quiz.Lookup(c.Param("id"))
	if err != nil {
		h.fail(c, "get quiz", err)
		return
	}
	common.OK(c, gin.H{"quiz": q})
}

type scoreQuizReq struct {
	Answers []int `json:"answers"`
}

func (h *Handler) ScoreQuiz(c *gin.Context) {
	q, err := quiz.Lookup(c.Param("id"))
	if err != nil {
		h.fail(c, "score quiz", err)
		return
	}
	var req scoreQuizReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	res, err := q.Score(req.Answers)
	if err != nil {
		h.fail(c, "score quiz", err)
		return
	}
	common.OK(c, gin.H{"result": res})
}
