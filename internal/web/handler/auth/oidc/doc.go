// Package oidc provides handlers for the campus single sign-on flow.
//
// This package implements the OAuth2/OIDC authentication callback handler,
// supporting login, logout, and user provisioning from the university's
// identity provider or any other OIDC-compliant provider.
//
// The OIDC flow includes:
//   - Login initiation with CSRF protection via state tokens
//   - Authorization callback handling with ID token verification
//   - Automatic member creation/update from OIDC claims
//   - Session creation and cookie management
//   - Logout with provider end session support
package oidc
