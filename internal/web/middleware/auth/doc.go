// Package auth provides the web middleware around sessions and the
// admin route guard: it resolves the current user from the session
// cookie, evaluates the guard state machine for admin routes and
// enforces per-feature permissions on individual endpoints.
package auth
