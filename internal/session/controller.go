package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/suPer8Hu/roomchat/internal/account"
	"github.com/suPer8Hu/roomchat/internal/ai"
	"github.com/suPer8Hu/roomchat/internal/chat"
	"github.com/suPer8Hu/roomchat/internal/common"
)

// Lockout throttles repeated failed logins for a username.
type Lockout interface {
	IsLocked(ctx context.Context, username string) (bool, time.Duration)
	RecordFailure(ctx context.Context, username string)
	RecordSuccess(ctx context.Context, username string)
}

// LockedError is returned by Login while a username is locked out.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed attempts, try again in %s", e.RetryAfter.Round(time.Second))
}

// Controller is the only code that mutates a *Session. Callers load the
// session, call one method, and save it back.
type Controller struct {
	accounts *account.Store
	svc      *chat.Service
	catalog  *ai.Catalog
	lockout  Lockout
}

func NewController(accounts *account.Store, svc *chat.Service, catalog *ai.Catalog) *Controller {
	return &Controller{accounts: accounts, svc: svc, catalog: catalog}
}

// WithLockout enables failed-login throttling.
func (c *Controller) WithLockout(l Lockout) *Controller {
	c.lockout = l
	return c
}

func (c *Controller) Catalog() *ai.Catalog { return c.catalog }

func (c *Controller) Register(ctx context.Context, username, password string) error {
	return c.accounts.Register(ctx, strings.TrimSpace(username), password)
}

// Login authenticates and moves the session to the no-room state. Logging
// in as a different user on an authenticated session drops the credential
// and moves the session to a fresh ID, leaving the old record untouched.
func (c *Controller) Login(ctx context.Context, s *Session, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return account.ErrInvalidInput
	}
	if c.lockout != nil {
		if locked, remaining := c.lockout.IsLocked(ctx, username); locked {
			return &LockedError{RetryAfter: remaining}
		}
	}

	if err := c.accounts.Authenticate(ctx, username, password); err != nil {
		if c.lockout != nil && errors.Is(err, account.ErrInvalidCredentials) {
			c.lockout.RecordFailure(ctx, username)
		}
		return err
	}
	if c.lockout != nil {
		c.lockout.RecordSuccess(ctx, username)
	}

	if s.Username != username {
		s.APIKey = ""
	}
	if s.LoggedIn && s.Username != username {
		id, err := common.NewULID()
		if err != nil {
			return err
		}
		s.ID = id
	}
	s.LoggedIn = true
	s.Username = username
	s.clearRoom()
	return nil
}

// Logout returns the session to anonymous. The model choice and display
// preferences survive.
func (c *Controller) Logout(s *Session) {
	s.LoggedIn = false
	s.Username = ""
	s.APIKey = ""
	s.clearRoom()
}

func (c *Controller) CreateRoom(ctx context.Context, s *Session, name string) (*chat.Room, error) {
	if !s.LoggedIn {
		return nil, ErrNotAuthenticated
	}
	room, err := c.svc.Repo().CreateRoom(ctx, s.Username, name)
	if err != nil {
		return nil, err
	}
	s.RoomID = room.ID
	s.RoomName = room.Name
	return room, nil
}

func (c *Controller) ListRooms(ctx context.Context, s *Session) ([]chat.Room, error) {
	if !s.LoggedIn {
		return nil, ErrNotAuthenticated
	}
	return c.svc.Repo().ListRooms(ctx, s.Username)
}

func (c *Controller) SelectRoom(ctx context.Context, s *Session, roomID uint64) (*chat.Room, error) {
	if !s.LoggedIn {
		return nil, ErrNotAuthenticated
	}
	room, err := c.svc.Repo().GetRoom(ctx, s.Username, roomID)
	if err != nil {
		return nil, err
	}
	s.RoomID = room.ID
	s.RoomName = room.Name
	return room, nil
}

// DeleteRoom removes one of the user's rooms with its history. Deleting the
// selected room leaves the session with no room.
func (c *Controller) DeleteRoom(ctx context.Context, s *Session, roomID uint64) error {
	if !s.LoggedIn {
		return ErrNotAuthenticated
	}
	repo := c.svc.Repo()
	if _, err := repo.GetRoom(ctx, s.Username, roomID); err != nil {
		return err
	}
	if err := repo.DeleteRoom(ctx, roomID); err != nil {
		return err
	}
	if s.RoomID == roomID {
		s.clearRoom()
	}
	return nil
}

// SelectModel accepts a catalog id or display name.
func (c *Controller) SelectModel(s *Session, idOrName string) (ai.Model, error) {
	m, err := c.catalog.Lookup(idOrName)
	if err != nil {
		return ai.Model{}, fmt.Errorf("%w: %s", ErrUnknownModel, strings.TrimSpace(idOrName))
	}
	s.Model = m.ID
	return m, nil
}

func (c *Controller) SetCredential(s *Session, key string) error {
	key = strings.TrimSpace(key)
	if err := checkCredential(key); err != nil {
		return err
	}
	s.APIKey = key
	return nil
}

// SetPreferences updates display settings. An empty theme keeps the
// current one.
func (c *Controller) SetPreferences(s *Session, theme string, showPassword *bool) error {
	switch theme {
	case "":
	case ThemeLight, ThemeDark:
		s.Theme = theme
	default:
		return fmt.Errorf("%w: theme must be %s or %s", ErrInvalidInput, ThemeLight, ThemeDark)
	}
	if showPassword != nil {
		s.ShowPassword = *showPassword
	}
	return nil
}

func (c *Controller) History(ctx context.Context, s *Session) ([]chat.Message, error) {
	if err := requireRoom(s); err != nil {
		return nil, err
	}
	return c.svc.Repo().History(ctx, s.Username, s.RoomID)
}

func (c *Controller) ClearHistory(ctx context.Context, s *Session) (int64, error) {
	if err := requireRoom(s); err != nil {
		return 0, err
	}
	return c.svc.Repo().ClearHistory(ctx, s.Username, s.RoomID)
}

// Send runs one exchange in the selected room and returns the stored row.
// Upstream failures are recorded as the reply, not returned.
func (c *Controller) Send(ctx context.Context, s *Session, prompt string) (*chat.Message, error) {
	prompt, err := c.checkSend(s, prompt)
	if err != nil {
		return nil, err
	}
	return c.Exchange(ctx, s.Username, s.RoomID, s.Model, s.APIKey, prompt)
}

func (c *Controller) Exchange(ctx context.Context, username string, roomID uint64, model, credential, prompt string) (*chat.Message, error) {
	return c.svc.Exchange(ctx, username, roomID, model, credential, prompt)
}

// Enqueue records a send as a queued job. created is false when the
// idempotency key matched an earlier job.
func (c *Controller) Enqueue(ctx context.Context, s *Session, prompt, idempotencyKey string) (job *chat.Job, created bool, err error) {
	prompt, err = c.checkSend(s, prompt)
	if err != nil {
		return nil, false, err
	}
	id, err := common.NewULID()
	if err != nil {
		return nil, false, err
	}
	job = &chat.Job{
		ID:        id,
		Username:  s.Username,
		SessionID: s.ID,
		RoomID:    s.RoomID,
		Model:     s.Model,
		Prompt:    prompt,
		Status:    chat.JobQueued,
	}
	if k := strings.TrimSpace(idempotencyKey); k != "" {
		job.IdempotencyKey = &k
	}
	return c.svc.CreateJobOrGetExisting(ctx, job)
}

func (c *Controller) Job(ctx context.Context, s *Session, jobID string) (*chat.Job, error) {
	if !s.LoggedIn {
		return nil, ErrNotAuthenticated
	}
	return c.svc.GetJob(ctx, s.Username, jobID)
}

func (c *Controller) checkSend(s *Session, prompt string) (string, error) {
	if err := requireRoom(s); err != nil {
		return "", err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	if err := checkCredential(s.APIKey); err != nil {
		return "", err
	}
	return prompt, nil
}

func requireRoom(s *Session) error {
	if !s.LoggedIn {
		return ErrNotAuthenticated
	}
	if s.RoomID == 0 {
		return ErrNoRoomSelected
	}
	return nil
}

func checkCredential(key string) error {
	if key == "" {
		return ErrMissingCredential
	}
	if len(key) < MinCredentialLen {
		return ErrWeakCredential
	}
	return nil
}
