// Package account is the credential store: user registration and
// password authentication.
package account

import (
	"context"
	"errors"

	"github.com/suPer8Hu/roomchat/internal/auth"
	"github.com/suPer8Hu/roomchat/internal/common"
	"github.com/suPer8Hu/roomchat/internal/models"
	"gorm.io/gorm"
)

var (
	ErrInvalidInput       = errors.New("username and password cannot be empty")
	ErrWeakPassword       = auth.ErrWeakPassword
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Register validates and inserts a new user. The password is stored as a
// bcrypt hash.
func (s *Store) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrInvalidInput
	}
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrDuplicateUsername
		}
		return tx.Create(&models.User{Username: username, Password: hash}).Error
	})
	if common.IsUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	return err
}

// Authenticate checks an exact username/password match.
func (s *Store) Authenticate(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrInvalidInput
	}

	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		auth.BurnCompare(password)
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}

	ok, err := auth.CheckPassword(u.Password, password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}
