package main

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/emosense/internal/models"
	"github.com/desertthunder/emosense/internal/session"
	"github.com/desertthunder/emosense/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges email and password for a session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	reader := bufio.NewReader(r.input)
	creds := models.Credentials{Email: cmd.String("email"), Password: cmd.String("password")}

	var err error
	if creds.Email == "" {
		if creds.Email, err = r.promptLine(reader, "Email"); err != nil {
			return err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = r.promptPassword(reader); err != nil {
			return err
		}
	}

	r.logger.Debug("logging in", "email", creds.Email)

	profile, err := r.auth.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("login failed: %w", r.handleAuthError(ctx, err, ""))
	}

	return r.writePlain("✓ Logged in as %s (%s)\n", profile.Name, profile.Role)
}

// AuthLogout ends the session. Local session data is cleared even when the API call fails.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.auth.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed, local session cleared: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthMe fetches the current profile from the API and caches it.
func (r *Runner) AuthMe(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	profile, err := r.auth.CurrentUser(ctx)
	if err != nil {
		return r.handleAuthError(ctx, err, session.LoginPath)
	}

	if cmd.Bool("open") {
		if profile.Image == "" {
			return fmt.Errorf("%w: profile has no image", shared.ErrMissingArgument)
		}
		if err := shared.OpenURL(profile.Image); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, true)
	}

	r.writePlainHeader(profile.Name)
	r.writePlain("ID:      %s\n", profile.ID)
	r.writePlain("Email:   %s\n", profile.Email)
	r.writePlain("Role:    %s\n", profile.Role)
	if profile.Emotion != "" {
		r.writePlain("Emotion: %s %s\n", profile.Emotion, models.Glyph(profile.Emotion))
	}
	r.writePlain("History: %d entries\n", len(profile.EmotionHistory))
	return nil
}

// tokenInfo describes the held token. Claims are decoded without verification, for display only.
type tokenInfo struct {
	Active    bool       `json:"active"`
	User      string     `json:"user,omitempty"`
	Role      string     `json:"role,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
	Opaque    bool       `json:"opaque,omitempty"`
}

// inspectToken reads the registered claims of a JWT. Tokens that are not JWTs are reported as opaque.
func inspectToken(token string, now time.Time) tokenInfo {
	info := tokenInfo{Active: true}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		info.Opaque = true
		return info
	}

	info.Subject, _ = claims.GetSubject()
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = &iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = &exp.Time
		info.Expired = now.After(exp.Time)
	}
	return info
}

// AuthStatus reports the locally held session without contacting the API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	info := tokenInfo{}
	if token, ok := r.session.Token(ctx); ok {
		info = inspectToken(token, time.Now())
	}
	if u := r.session.User(ctx); u != nil {
		info.User, info.Role = u.Email, u.Role
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, true)
	}

	if !info.Active {
		return r.writePlain("✗ Not logged in\n")
	}

	r.writePlain("✓ Logged in\n")
	if info.User != "" {
		r.writePlain("User:    %s (%s)\n", info.User, info.Role)
	}
	if info.Opaque {
		return r.writePlain("Token:   opaque\n")
	}
	if info.Subject != "" {
		r.writePlain("Subject: %s\n", info.Subject)
	}
	if info.ExpiresAt != nil {
		note := ""
		if info.Expired {
			note = " (expired, the next request will end the session)"
		}
		r.writePlain("Expires: %s%s\n", info.ExpiresAt.Local().Format(time.RFC1123), note)
	}
	return nil
}
