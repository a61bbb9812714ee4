// Package quiz scores short personality quizzes: each answer adds one
// point to a category and the highest tally wins.
package quiz

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrAnswerCount   = errors.New("quiz: wrong number of answers")
	ErrInvalidAnswer = errors.New("quiz: answer out of range")
	ErrNotFound      = errors.New("quiz: not found")
)

type Category struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

type Option struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

type Question struct {
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

type Quiz struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Categories []Category `json:"categories"`
	Questions  []Question `json:"questions"`

	// UndeterminedOnFullTie reports no winner when every category ends
	// with the same tally.
	UndeterminedOnFullTie bool `json:"-"`
}

type Tally struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
}

type Result struct {
	QuizID       string    `json:"quiz_id"`
	Undetermined bool      `json:"undetermined"`
	Winner       *Category `json:"winner,omitempty"`
	Tallies      []Tally   `json:"tallies"`
	ShareURL     string    `json:"share_url,omitempty"`
}

// Score tallies answers, one option index per question. Ties go to the
// category declared first.
func (q *Quiz) Score(answers []int) (Result, error) {
	if len(answers) != len(q.Questions) {
		return Result{}, fmt.Errorf("%w: got %d, want %d", ErrAnswerCount, len(answers), len(q.Questions))
	}

	counts := make(map[string]int, len(q.Categories))
	for i, a := range answers {
		opts := q.Questions[i].Options
		if a < 0 || a >= len(opts) {
			return Result{}, fmt.Errorf("%w: question %d", ErrInvalidAnswer, i+1)
		}
		counts[opts[a].Category]++
	}

	res := Result{QuizID: q.ID, Tallies: make([]Tally, 0, len(q.Categories))}
	best := -1
	allEqual := true
	for i, c := range q.Categories {
		n := counts[c.Key]
		res.Tallies = append(res.Tallies, Tally{Category: c.Key, Score: n})
		if i > 0 && n != res.Tallies[0].Score {
			allEqual = false
		}
		if best < 0 || n > res.Tallies[best].Score {
			best = i
		}
	}

	if best < 0 || (q.UndeterminedOnFullTie && allEqual) {
		res.Undetermined = true
		return res, nil
	}
	winner := q.Categories[best]
	res.Winner = &winner
	res.ShareURL = shareURL(q, winner)
	return res, nil
}

func shareURL(q *Quiz, c Category) string {
	text := fmt.Sprintf("I got %s on the %q quiz! Try it too!", strings.TrimSpace(c.Title), q.Title)
	return "https://x.com/intent/tweet?text=" + url.QueryEscape(text)
}
