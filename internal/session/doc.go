// Package session holds the explicit session context shared by every emosense component.
//
// A [Session] is built once at startup over the persisted token and profile. Its lifecycle is
// init (read persisted state), active (a token is held) and teardown (logout or an unauthorized
// response). Components receive the session by reference instead of reaching for globals.
//
// Navigation and user-visible notifications are abstracted as [Navigator] and [Notifier] so the
// CLI, the dashboard and tests can each decide what a redirect or a toast means.
package session
