package dto

import "time"

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Mobile    *string   `json:"mobile,omitempty"`
	Role      string    `json:"role"`
	BatchCode *string   `json:"batch_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginResponse struct {
	User         UserResponse `json:"user"`
	SessionToken string       `json:"session_token"`
}
