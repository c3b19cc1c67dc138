package verify

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrMissingParameters       = errors.New("missing required parameters")
	ErrTokenExpired            = errors.New("access token expired")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// APIError carries a provider response the shared classification could not
// map to a known condition.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// classifyResponse is the single error-classification routine every adapter
// funnels non-2xx responses through: 401 means the stored token went stale,
// 403 means the token lacks the scope for this check.
func classifyResponse(provider string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrTokenExpired
	case http.StatusForbidden:
		return ErrInsufficientPermissions
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = resp.Status
	}
	return &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
