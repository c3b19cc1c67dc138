package oauth

import "errors"

var (
	ErrProviderNotFound  = errors.New("oauth provider not found")
	ErrCodeEmpty         = errors.New("authorization code is empty")
	ErrRefreshTokenEmpty = errors.New("refresh token is empty")
)
