package user

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) registerOp() huma.Operation {
	return huma.Operation{
		OperationID:   "user-register",
		Method:        http.MethodPost,
		Path:          "/register",
		Summary:       "Register a user",
		Description:   "Creates the account and starts a session.",
		Tags:          []string{"users"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) loginOp() huma.Operation {
	return huma.Operation{
		OperationID: "user-login",
		Method:      http.MethodPost,
		Path:        "/login",
		Summary:     "Log in",
		Tags:        []string{"users"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) logoutOp() huma.Operation {
	return huma.Operation{
		OperationID: "user-logout",
		Method:      http.MethodPost,
		Path:        "/logout",
		Summary:     "Log out",
		Tags:        []string{"users"},
		Middlewares: h.optional,
	}
}

func (h *Handler) logoutGetOp() huma.Operation {
	op := h.logoutOp()
	op.OperationID = "user-logout-get"
	op.Method = http.MethodGet
	return op
}

func (h *Handler) statusOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-status",
		Method:      http.MethodGet,
		Path:        "/auth/status",
		Summary:     "Current authentication state",
		Tags:        []string{"users"},
		Middlewares: h.optional,
	}
}
