package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emosense/internal/models"
	"github.com/desertthunder/emosense/internal/repositories"
	"github.com/desertthunder/emosense/internal/shared"
)

type State int

const (
	StateNew State = iota
	StateActive
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	default:
		return "new"
	}
}

// Session is the process-wide session context.
type Session struct {
	Store     *repositories.SessionStore
	Tokens    *repositories.TokenHolder
	Navigator Navigator
	Notifier  Notifier
	logger    *log.Logger

	mu    sync.Mutex
	state State
}

// New builds a [Session]. Call [Session.Init] before use.
func New(store *repositories.SessionStore, tokens *repositories.TokenHolder, nav Navigator, notifier Notifier, logger *log.Logger) *Session {
	return &Session{
		Store:     store,
		Tokens:    tokens,
		Navigator: nav,
		Notifier:  notifier,
		logger:    logger,
	}
}

// Init reads the persisted token. A held token makes the session active; nothing about it is verified.
func (s *Session) Init(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Tokens.Get(ctx); ok {
		s.state = StateActive
	} else {
		s.state = StateEnded
	}
	return s.state
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether a token is currently held. Another process may have changed it since Init.
func (s *Session) Active(ctx context.Context) bool {
	_, ok := s.Tokens.Get(ctx)
	return ok
}

// Token returns the held bearer token.
func (s *Session) Token(ctx context.Context) (string, bool) {
	return s.Tokens.Get(ctx)
}

// User returns the cached profile.
func (s *Session) User(ctx context.Context) *models.Profile {
	return s.Store.GetUser(ctx)
}

// RequireActive fails with [shared.ErrNotAuthenticated] when no token is held.
func (s *Session) RequireActive(ctx context.Context) error {
	if !s.Active(ctx) {
		return fmt.Errorf("%w: run 'emosense auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// Start stores a fresh token and profile after a successful login.
func (s *Session) Start(ctx context.Context, token string, profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Tokens.Set(ctx, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := s.Store.SaveUser(ctx, profile); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	s.state = StateActive
	return nil
}

// Teardown clears the token and profile, and the emotion history when clearHistory is set.
func (s *Session) Teardown(ctx context.Context, clearHistory bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teardown(ctx, clearHistory)
}

func (s *Session) teardown(ctx context.Context, clearHistory bool) error {
	s.state = StateEnded

	errs := []error{s.Tokens.Clear(ctx), s.Store.ClearUser(ctx)}
	if clearHistory {
		errs = append(errs, s.Store.ClearEmotionHistory(ctx))
	}
	return errors.Join(errs...)
}

// Unauthorized ends the session after a 401 and sends the user to the login surface.
//
// The redirect carries the current location as the return hint and is skipped when the user is
// already under the login path, so concurrent 401s redirect at most once.
func (s *Session) Unauthorized(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.teardown(ctx, false); err != nil {
		s.logger.Error("failed to clear session", "error", err)
	}

	current := s.Navigator.Location()
	if underLogin(current) {
		return
	}

	from, _, _ := strings.Cut(current, "?")
	if from == "" {
		from = HomePath
	}
	s.Navigator.Navigate(LoginRedirect(from))
}
