package recording

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultMaxBytes int64 = 10 << 20

type Recording struct {
	ID          uuid.UUID
	Owner       string
	Audio       []byte
	ContentType string
	Duration    float64 // seconds, as declared by the client
	CreatedAt   time.Time
}

// Upload is one anonymous submission addressed to Target.
type Upload struct {
	Target      string
	ContentType string
	Size        int64
	Body        io.Reader
	Duration    float64
	Timestamp   time.Time
}

// ParseTimestamp accepts RFC 3339 or unix milliseconds. Anything else,
// including an empty value, yields the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

// ParseDuration reads the declared duration in seconds; invalid or negative is 0.
func ParseDuration(s string) float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
