package chat

import "errors"

var (
	ErrEmptyName     = errors.New("room name cannot be empty")
	ErrDuplicateName = errors.New("room name already exists under your account")
	ErrRoomNotFound  = errors.New("room not found")
	ErrJobNotFound   = errors.New("job not found")
	ErrJobNotQueued  = errors.New("job is not queued")
)
