package session

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
)

// statusCoder is implemented by errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// IsAuthError reports whether err means the credentials were rejected.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if strings.Contains(strings.ToLower(err.Error()), "unauthorized") {
		return true
	}
	var sc statusCoder
	return errors.As(err, &sc) && sc.StatusCode() == http.StatusUnauthorized
}

// ErrorHandler reports failed operations to the user and ends the session on auth errors.
//
// It does not care which operation failed. Handing it the same error value twice in a row reports it
// once; distinct errors are always reported, even when their messages match. Handling nil resets.
type ErrorHandler struct {
	session    *Session
	redirectTo string

	mu   sync.Mutex
	last error
}

// NewErrorHandler creates an [ErrorHandler]. An empty redirectTo disables navigation.
func NewErrorHandler(s *Session, redirectTo string) *ErrorHandler {
	return &ErrorHandler{session: s, redirectTo: redirectTo}
}

// Handle processes err and reports whether it was treated as an auth error.
func (h *ErrorHandler) Handle(ctx context.Context, err error) bool {
	h.mu.Lock()
	if err == nil {
		h.last = nil
		h.mu.Unlock()
		return false
	}
	if sameError(err, h.last) {
		h.mu.Unlock()
		return false
	}
	h.last = err
	h.mu.Unlock()

	h.session.Notifier.Notify(Notification{
		Level:       LevelError,
		Title:       "Authentication Failed",
		Description: err.Error(),
	})

	if !IsAuthError(err) {
		return false
	}

	if clearErr := h.session.Teardown(ctx, false); clearErr != nil {
		h.session.logger.Error("failed to clear session", "error", clearErr)
	}
	if h.redirectTo != "" {
		h.session.Navigator.Navigate(h.redirectTo)
	}
	return true
}

// sameError compares by identity. Errors of uncomparable types are never the same.
func sameError(a, b error) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	return ta == tb && ta.Comparable() && a == b
}
