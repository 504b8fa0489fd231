package services

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emosense/internal/models"
	"github.com/desertthunder/emosense/internal/session"
	"github.com/desertthunder/emosense/internal/shared"
)

const (
	loginEndpoint    = "/auth/login"
	logoutEndpoint   = "/auth/logout"
	registerEndpoint = "/auth/register"
	meEndpoint       = "/auth/me"
	usersEndpoint    = "/auth/users"
)

// AuthService wraps the authentication endpoints and keeps the session in step with them.
type AuthService struct {
	client  *Client
	session *session.Session
	logger  *log.Logger
}

func NewAuthService(client *Client, sess *session.Session, logger *log.Logger) *AuthService {
	return &AuthService{client: client, session: sess, logger: shared.WithLogger(logger, "component", "auth")}
}

// Login exchanges credentials for a token, stores the session and returns to the page that sent the
// user to the login surface.
//
// The cached emotion history is left alone; the next refresh replaces it.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.Profile, error) {
	if err := validate(creds); err != nil {
		return nil, err
	}

	resp, err := s.client.Post(ctx, loginEndpoint, creds)
	if err != nil {
		return nil, err
	}

	var result models.AuthResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("%w: login response has no access token", shared.ErrAPIRequest)
	}

	profile := models.Profile{
		ID:             result.User.ID,
		Email:          result.User.Email,
		Name:           result.User.Name,
		Role:           result.User.Role,
		Emotion:        result.User.Emotion,
		Image:          result.User.Image,
		EmotionHistory: result.User.EmotionHistory,
	}
	if err := s.session.Start(ctx, result.AccessToken, profile); err != nil {
		return nil, err
	}

	s.session.Notifier.Notify(session.Notification{
		Level:       session.LevelSuccess,
		Title:       "Login successful",
		Description: "Welcome back to EmotionSense!",
	})
	s.session.Navigator.Navigate(session.ReturnPath(s.session.Navigator.Location()))

	profile.IsAuthenticated = true
	return &profile, nil
}

// Register creates a user on behalf of an admin. The admin's own session is not changed.
func (s *AuthService) Register(ctx context.Context, reg models.Registration) (*models.AuthResult, error) {
	if err := validate(&reg); err != nil {
		return nil, err
	}
	if u := s.session.User(ctx); u != nil && !u.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	result, err := s.register(ctx, reg)
	if err != nil {
		s.logger.Error("Error registering user", "error", err)
		s.session.Notifier.Notify(session.Notification{
			Level:       session.LevelError,
			Title:       "User registration failed",
			Description: err.Error(),
		})
		return nil, err
	}

	s.session.Notifier.Notify(session.Notification{
		Level:       session.LevelSuccess,
		Title:       "User registered successfully",
		Description: fmt.Sprintf("%s has been added.", result.User.Name),
	})
	return result, nil
}

func (s *AuthService) register(ctx context.Context, reg models.Registration) (*models.AuthResult, error) {
	resp, err := s.client.Post(ctx, registerEndpoint, reg)
	if err != nil {
		return nil, err
	}

	var result models.AuthResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CurrentUser fetches the profile behind the held token and caches it.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.Profile, error) {
	resp, err := s.client.Get(ctx, meEndpoint, nil)
	if err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := resp.Decode(&profile); err != nil {
		return nil, err
	}
	if err := s.session.Store.SaveUser(ctx, profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Logout ends the session on the server and locally.
//
// A failed request still clears the token and profile; only a successful one clears the history.
// Either way the user lands on the login surface.
func (s *AuthService) Logout(ctx context.Context) error {
	_, err := s.client.Post(ctx, logoutEndpoint, nil)
	if err != nil {
		if clearErr := s.session.Teardown(ctx, false); clearErr != nil {
			s.logger.Error("failed to clear session", "error", clearErr)
		}
		s.session.Notifier.Notify(session.Notification{
			Level:       session.LevelError,
			Title:       "Logout failed",
			Description: "An error occurred while logging out.",
		})
		s.session.Navigator.Navigate(session.LoginPath)
		return err
	}

	if err := s.session.Teardown(ctx, true); err != nil {
		return err
	}
	s.session.Notifier.Notify(session.Notification{
		Level:       session.LevelSuccess,
		Title:       "Logout successful",
		Description: "You have been logged out.",
	})
	s.session.Navigator.Navigate(session.LoginPath)
	return nil
}

// ListUsers returns every user. Admin only.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.Profile, error) {
	if u := s.session.User(ctx); u != nil && !u.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	resp, err := s.client.Get(ctx, usersEndpoint, nil)
	if err != nil {
		return nil, err
	}

	var users []models.Profile
	if err := resp.Decode(&users); err != nil {
		return nil, err
	}
	return users, nil
}

// Refresh re-fetches the current user and replaces the cached profile and history wholesale.
//
// It returns nil without a request when no token is held. Failures are logged and read as
// "nothing changed".
func (s *AuthService) Refresh(ctx context.Context) *models.Profile {
	if _, ok := s.session.Token(ctx); !ok {
		return nil
	}

	resp, err := s.client.Get(ctx, meEndpoint, nil)
	if err != nil {
		s.logger.Error("Error refreshing user data", "error", err)
		return nil
	}

	var profile models.Profile
	if err := resp.Decode(&profile); err != nil {
		s.logger.Error("Error refreshing user data", "error", err)
		return nil
	}

	if err := s.session.Store.SaveUser(ctx, profile); err != nil {
		s.logger.Error("Error refreshing user data", "error", err)
		return nil
	}
	if err := s.session.Store.ReplaceEmotionHistory(ctx, profile.EmotionHistory); err != nil {
		s.logger.Error("Error refreshing user data", "error", err)
		return nil
	}
	return &profile
}

func validate(v models.Validator) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}
