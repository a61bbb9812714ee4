package chat

import "time"

// Room is a chat room owned by one user. Names are unique per owner.
type Room struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(64);not null;uniqueIndex:uniq_room_owner_name,priority:1" json:"username"`
	Name      string    `gorm:"column:room_name;type:varchar(128);not null;uniqueIndex:uniq_room_owner_name,priority:2" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Room) TableName() string { return "chat_rooms" }

// Message is one persisted exchange: the user's prompt and the reply it
// produced. A failed upstream call stores the error text as the reply.
type Message struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string `gorm:"type:varchar(64);index:idx_chats_user_room,priority:1" json:"username"`
	RoomID    uint64 `gorm:"index:idx_chats_user_room,priority:2" json:"room_id"`
	Model     string `gorm:"type:varchar(128)" json:"model"`
	Prompt    string `gorm:"column:message;type:text" json:"prompt"`
	Reply     string `gorm:"column:response;type:text" json:"reply"`
	Timestamp string `gorm:"type:varchar(40)" json:"timestamp"`
}

func (Message) TableName() string { return "chats" }

// Time parses the stored ISO-8601 timestamp.
func (m Message) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, m.Timestamp)
}
