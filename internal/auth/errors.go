package auth

import "errors"

var (
	ErrVerificationRequired = errors.New("player password must be verified first")
	ErrPasswordRequired     = errors.New("password is required")
	ErrNoPlayerSelected     = errors.New("no player selected")
	ErrWrongPassword        = errors.New("wrong password")
	ErrMissingHash          = errors.New("player has no password hash")
)
