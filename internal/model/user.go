package model

import "time"

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:64" json:"user_id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        *string   `gorm:"uniqueIndex" json:"email,omitempty"`
	Mobile       *string   `gorm:"index:idx_users_mobile_batch" json:"mobile,omitempty"`
	Role         string    `gorm:"not null;index" json:"role"`
	BatchCode    *string   `gorm:"index:idx_users_mobile_batch" json:"batch_code,omitempty"`
	ProfilePic   *string   `json:"profile_pic,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the user holds one of roles.
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
