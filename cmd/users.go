package main

import (
	"bufio"
	"context"
	"fmt"

	"github.com/desertthunder/emosense/internal/formatter"
	"github.com/desertthunder/emosense/internal/models"
	"github.com/urfave/cli/v3"
)

// UsersList prints every user. Admin only.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	users, err := r.auth.ListUsers(ctx)
	if err != nil {
		return r.handleAuthError(ctx, err, "")
	}

	data, err := formatter.Users(users, format)
	if err != nil {
		return err
	}
	return r.emit(data, cmd.String("output"), "users", format)
}

// UsersRegister creates a user. Admin only; the admin's own session is unchanged.
func (r *Runner) UsersRegister(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	reg := models.Registration{
		Email:    cmd.String("email"),
		Name:     cmd.String("name"),
		Role:     cmd.String("role"),
		Password: cmd.String("password"),
	}
	if reg.Password == "" {
		pw, err := r.promptPassword(bufio.NewReader(r.input))
		if err != nil {
			return err
		}
		reg.Password = pw
	}

	result, err := r.auth.Register(ctx, reg)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return r.writePlain("✓ Registered %s <%s> as %s\n", result.User.Name, result.User.Email, result.User.Role)
}

// emit writes rendered output to stdout, or to a file when path or a non-text format asks for one.
func (r *Runner) emit(data []byte, path, base string, format formatter.Format) error {
	if path == "" {
		return r.writeBytes(data)
	}

	written, err := formatter.WriteExport(data, path, base, format)
	if err != nil {
		return err
	}
	r.logger.Info("export written", "path", written)
	return r.writePlain("✓ Wrote %s\n", written)
}
