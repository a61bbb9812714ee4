// Package session holds per-client state and the controller that drives
// the login / room / send flow over it.
package session

import (
	"errors"
	"time"

	"github.com/suPer8Hu/roomchat/internal/common"
)

const (
	ThemeLight = "Light"
	ThemeDark  = "Dark"

	// MinCredentialLen is the shortest API key accepted for sending.
	MinCredentialLen = 40
)

var (
	ErrNotAuthenticated  = errors.New("not logged in")
	ErrNoRoomSelected    = errors.New("no room selected")
	ErrMissingCredential = errors.New("api key is required")
	ErrWeakCredential    = errors.New("api key looks invalid")
	ErrUnknownModel      = errors.New("unknown model")
	ErrInvalidInput      = errors.New("invalid input")
	ErrSessionNotFound   = errors.New("session not found")
)

type State int

const (
	StateAnonymous State = iota
	StateNoRoom
	StateRoomSelected
)

func (s State) String() string {
	switch s {
	case StateNoRoom:
		return "authenticated"
	case StateRoomSelected:
		return "room_selected"
	default:
		return "anonymous"
	}
}

// Session is the state of one client. RoomID 0 means no room is selected.
type Session struct {
	ID           string    `json:"id"`
	LoggedIn     bool      `json:"logged_in"`
	Username     string    `json:"username"`
	RoomID       uint64    `json:"room_id"`
	RoomName     string    `json:"room_name"`
	Model        string    `json:"model"`
	APIKey       string    `json:"api_key"`
	ShowPassword bool      `json:"show_password"`
	Theme        string    `json:"theme"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// New returns an anonymous session with the given default model.
func New(defaultModel string) (*Session, error) {
	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        id,
		Model:     defaultModel,
		Theme:     ThemeLight,
		UpdatedAt: time.Now(),
	}, nil
}

func (s *Session) State() State {
	switch {
	case !s.LoggedIn:
		return StateAnonymous
	case s.RoomID == 0:
		return StateNoRoom
	default:
		return StateRoomSelected
	}
}

// View is the client-facing projection; the API key is never echoed back.
type View struct {
	State         string `json:"state"`
	Username      string `json:"username,omitempty"`
	RoomID        uint64 `json:"room_id,omitempty"`
	RoomName      string `json:"room_name,omitempty"`
	Model         string `json:"model"`
	HasCredential bool   `json:"has_credential"`
	ShowPassword  bool   `json:"show_password"`
	Theme         string `json:"theme"`
}

func (s *Session) View() View {
	return View{
		State:         s.State().String(),
		Username:      s.Username,
		RoomID:        s.RoomID,
		RoomName:      s.RoomName,
		Model:         s.Model,
		HasCredential: s.APIKey != "",
		ShowPassword:  s.ShowPassword,
		Theme:         s.Theme,
	}
}

func (s *Session) clearRoom() {
	s.RoomID = 0
	s.RoomName = ""
}
