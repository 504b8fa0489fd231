package session

import (
	"net/url"
	"strings"
	"sync"
)

const (
	HomePath  = "/"
	LoginPath = "/auth"
)

// Navigator tracks which surface the user is on.
type Navigator interface {
	Location() string
	Navigate(path string)
}

// LoginRedirect builds the login location that returns to from after signing in.
func LoginRedirect(from string) string {
	return LoginPath + "?from=" + url.QueryEscape(from)
}

// ReturnPath extracts the from hint of a login location, defaulting to [HomePath].
func ReturnPath(location string) string {
	_, query, _ := strings.Cut(location, "?")
	values, err := url.ParseQuery(query)
	if err != nil || values.Get("from") == "" {
		return HomePath
	}
	return values.Get("from")
}

func underLogin(location string) bool {
	path, _, _ := strings.Cut(location, "?")
	return strings.HasPrefix(path, LoginPath)
}

// Router is an in-memory [Navigator] that keeps every location it visited.
type Router struct {
	mu      sync.Mutex
	current string
	history []string
	changed chan string
}

// NewRouter creates a [Router] positioned at start.
func NewRouter(start string) *Router {
	return &Router{current: start, changed: make(chan string, 8)}
}

func (r *Router) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Router) Navigate(path string) {
	r.mu.Lock()
	r.current = path
	r.history = append(r.history, path)
	r.mu.Unlock()

	select {
	case r.changed <- path:
	default:
	}
}

// History returns the locations navigated to, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Changes delivers navigations as they happen. Slow readers miss intermediate locations.
func (r *Router) Changes() <-chan string {
	return r.changed
}
