package session

import "errors"

// ErrInvalidSession covers unknown, revoked and expired tokens.
var ErrInvalidSession = errors.New("invalid session")
