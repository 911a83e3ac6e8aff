// Package service implements the auth flows on top of the store contracts:
// credential login, token issuance and rotation, password reset, request
// authentication and background housekeeping.
package service

import "errors"

var (
	// ErrInvalidCredentials covers unknown email, wrong password and
	// non-active accounts alike, so login failures stay indistinguishable.
	ErrInvalidCredentials = errors.New("service: invalid credentials")

	// ErrDuplicateIdentity reports a registration against an email or
	// username that is already taken.
	ErrDuplicateIdentity = errors.New("service: email or username already registered")

	// ErrInvalidRefreshToken covers every unusable refresh token: unknown,
	// revoked, expired, bad signature or wrong kind.
	ErrInvalidRefreshToken = errors.New("service: invalid refresh token")

	// ErrInvalidAccessToken reports a bearer token that failed verification.
	ErrInvalidAccessToken = errors.New("service: invalid access token")

	// ErrInvalidResetToken reports an unusable password reset token.
	ErrInvalidResetToken = errors.New("service: invalid reset token")

	// ErrUserNotFound reports a verified token whose subject no longer
	// exists.
	ErrUserNotFound = errors.New("service: user not found")

	// ErrAccountInactive reports a token for an account that is not active.
	ErrAccountInactive = errors.New("service: account is not active")
)
