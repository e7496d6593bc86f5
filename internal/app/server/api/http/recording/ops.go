package recording

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) uploadOp() huma.Operation {
	return huma.Operation{
		OperationID: "recording-upload",
		Method:      http.MethodPost,
		Path:        "/upload-recording",
		Summary:     "Send an anonymous voice message",
		Description: "Multipart form with one audio file addressed to targetUsername.",
		Tags:        []string{"recordings"},
		Middlewares: h.public,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "recording-list",
		Method:      http.MethodGet,
		Path:        "/recordings",
		Summary:     "List received voice messages",
		Description: "Recordings addressed to the session user, newest first.",
		Tags:        []string{"recordings"},
		Security:    []map[string][]string{{"cookieAuth": {}}},
		Middlewares: h.protected,
	}
}
