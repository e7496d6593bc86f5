package auth

import (
	"net/http"
	"time"
)

// Cookie describes the session cookie issued by the server.
type Cookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (c Cookie) Issue(token string) http.Cookie {
	return http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
	}
}

// Expire returns a cookie that makes the browser drop the session.
func (c Cookie) Expire() http.Cookie {
	return http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
	}
}

// Token extracts the session token from a Cookie request header. Malformed
// pairs belonging to other cookies are skipped.
func (c Cookie) Token(header string) string {
	if header == "" {
		return ""
	}
	r := http.Request{Header: http.Header{"Cookie": {header}}}
	ck, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// Browsers refuse SameSite=None without Secure.
func (c Cookie) sameSite() http.SameSite {
	if c.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
