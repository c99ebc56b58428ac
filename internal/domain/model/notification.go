package model

import "time"

type Notification struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(64);index"`
	EventType EventType `gorm:"type:varchar(100);not null;index"`
	Message   string    `gorm:"type:text;not null"`
	//受信したイベントのJSON
	Payload   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index"`
}
