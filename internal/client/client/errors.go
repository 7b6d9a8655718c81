package client

import "errors"

var (
	ErrUnavailable   = errors.New("server unavailable")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRejected      = errors.New("request rejected by server")
	ErrInvalidRecord = errors.New("record rejected by schema")
	ErrRateLimited   = errors.New("too many requests")
	ErrUnknownSchema = errors.New("unknown schema")
	ErrNotSignedIn   = errors.New("session is revoked")
)
