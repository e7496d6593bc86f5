package recording

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"voicedrop/internal/app/server/api/http/middleware/auth"
	"voicedrop/internal/domain/recording"
	"voicedrop/internal/domain/user"
)

type Handler struct {
	service   recording.Servicer
	users     user.Servicer
	log       *slog.Logger
	public    huma.Middlewares
	protected huma.Middlewares
}

// NewHandler wires the recording operations. Upload is anonymous and runs
// the public middlewares; listing requires a session.
func NewHandler(service recording.Servicer, users user.Servicer, log *slog.Logger,
	public, protected huma.Middlewares) *Handler {
	return &Handler{
		service:   service,
		users:     users,
		log:       log.With("component", "recording_handler"),
		public:    public,
		protected: protected,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.uploadOp(), h.upload)
	huma.Register(api, h.listOp(), h.list)
}

func (h *Handler) upload(ctx context.Context, input *uploadInput) (*uploadOutput, error) {
	form := &input.RawBody
	defer func() {
		if err := form.RemoveAll(); err != nil {
			h.log.Error("failed to remove multipart temp files", "error", err)
		}
	}()

	files := form.File[fieldAudio]
	switch {
	case len(files) == 0:
		return nil, huma.Error400BadRequest(recording.ErrMissingAudio.Error())
	case len(files) > 1:
		return nil, huma.Error400BadRequest("exactly one audio file is allowed")
	}
	fh := files[0]

	f, err := fh.Open()
	if err != nil {
		h.log.Error("failed to open audio part", "error", err)
		return nil, huma.Error500InternalServerError("could not read audio")
	}
	defer f.Close()

	_, err = h.service.Upload(ctx, recording.Upload{
		Target:      formValue(form, fieldTarget, fieldTargetAlt),
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
		Duration:    recording.ParseDuration(formValue(form, fieldDuration)),
		Timestamp:   recording.ParseTimestamp(formValue(form, fieldTimestamp)),
	})
	if err != nil {
		return nil, uploadError(err)
	}

	return &uploadOutput{Body: sentMessage}, nil
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*listOutput, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	u, err := h.users.Find(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, huma.Error401Unauthorized("Unauthorized")
		}
		h.log.Error("failed to resolve session user", "user_id", id.UserID, "error", err)
		return nil, huma.Error500InternalServerError("could not load recordings")
	}

	recs, err := h.service.List(ctx, u.Username)
	if err != nil {
		return nil, huma.Error500InternalServerError("could not load recordings")
	}

	items := make([]Item, 0, len(recs))
	for _, r := range recs {
		items = append(items, toItem(r))
	}
	return &listOutput{Body: ListResponse{Recordings: items}}, nil
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, recording.ErrMissingAudio), errors.Is(err, recording.ErrInvalidTarget):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, recording.ErrUnsupportedMediaType):
		return huma.NewError(http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, recording.ErrPayloadTooLarge):
		return huma.NewError(http.StatusRequestEntityTooLarge, err.Error())
	}
	return huma.Error500InternalServerError("could not store recording")
}

// formValue returns the first non-empty value among the given field names.
func formValue(form *multipart.Form, names ...string) string {
	for _, name := range names {
		if v := form.Value[name]; len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return ""
}
