package recording

import (
	"encoding/base64"
	"mime/multipart"
	"time"

	"voicedrop/internal/domain/recording"
)

const (
	fieldAudio     = "audio"
	fieldTarget    = "targetUsername"
	fieldTargetAlt = "username"
	fieldDuration  = "duration"
	fieldTimestamp = "timestamp"

	sentMessage = "Successfully Sent!"
)

type uploadInput struct {
	RawBody multipart.Form
}

type uploadOutput struct {
	Body string
}

type listOutput struct {
	Body ListResponse
}

type ListResponse struct {
	Recordings []Item `json:"recordings"`
}

type Item struct {
	ID          string    `json:"id" format:"uuid"`
	Audio       string    `json:"audio" doc:"Base64-encoded audio bytes"`
	CreatedAt   time.Time `json:"created_at"`
	ContentType string    `json:"content_type" example:"audio/webm"`
	Duration    float64   `json:"duration" doc:"Declared duration in seconds"`
}

func toItem(r recording.Recording) Item {
	return Item{
		ID:          r.ID.String(),
		Audio:       base64.StdEncoding.EncodeToString(r.Audio),
		CreatedAt:   r.CreatedAt,
		ContentType: r.ContentType,
		Duration:    r.Duration,
	}
}
