package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Envelope is the allowance for multipart boundaries and form fields on top
// of the audio ceiling.
const Envelope int64 = 1 << 20

// BodyLimit rejects requests whose declared length exceeds limit and caps the
// body reader for the rest.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				problem := huma.NewError(http.StatusRequestEntityTooLarge, "request body is too large")
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(problem.GetStatus())
				_ = json.NewEncoder(w).Encode(problem)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
