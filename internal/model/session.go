package model

import "time"

type Session struct {
	Token     string    `gorm:"primaryKey;size:80"`
	UserID    string    `gorm:"not null;index;size:64"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
