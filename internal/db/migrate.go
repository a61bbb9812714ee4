package db

import (
	"fmt"

	"github.com/suPer8Hu/roomchat/internal/chat"
	"github.com/suPer8Hu/roomchat/internal/models"
	"gorm.io/gorm"
)

func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&models.User{},
		&chat.Room{},
		&chat.Message{},
		&chat.Job{},
	); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
