package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// promptLine prints prompt and reads one trimmed line from r.input.
func (r *Runner) promptLine(reader *bufio.Reader, prompt string) (string, error) {
	if err := r.writePlain("%s: ", prompt); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(prompt), err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal. Piped input is read as a
// plain line so scripts can supply it.
func (r *Runner) promptPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if r.input != os.Stdin || !isTerminal(fd) {
		return r.promptLine(reader, "Password")
	}

	if err := r.writePlain("Password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	r.writePlain("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}
