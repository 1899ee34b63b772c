// Package auth implements authentication providers and the admin
// authorization core: the closed feature set, the pure permission
// resolver, the TTL-bounded permission cache and the route guard that
// decides whether an admin page may be served.
package auth
