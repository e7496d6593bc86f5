package user

import (
	"strings"
	"time"
)

type User struct {
	ID        int
	Username  string
	Email     string
	Password  string // bcrypt hash
	CreatedAt time.Time
}

// Public is the user view exposed over the API.
type Public struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (u User) Public() Public {
	return Public{ID: u.ID, Email: u.Email, Username: u.Username}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NormalizeUsername is the canonical form used for lookups and recording ownership.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
