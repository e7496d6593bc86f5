package user

import (
	"net/http"

	"voicedrop/internal/domain/user"
)

type registerInput struct {
	Body user.RegisterRequest
}

type loginInput struct {
	Body user.LoginRequest
}

// userOutput carries the user view plus the freshly issued session cookie.
type userOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      user.Public
}

type logoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      MessageResponse
}

type MessageResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}

type statusOutput struct {
	Body StatusResponse
}

type StatusResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *user.Public `json:"user,omitempty"`
}
