package identity

import "errors"

var (
	ErrMissingSecret  = errors.New("identity: missing token secret, set IDENTITY_JWT_SECRET")
	ErrMissingToken   = errors.New("identity: missing bearer token")
	ErrInvalidToken   = errors.New("identity: invalid token")
	ErrMissingSubject = errors.New("identity: token has no subject")
)
