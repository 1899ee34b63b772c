package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// DashboardPath is where denied admins and fresh sign-ins land.
	DashboardPath = "/dashboard"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"

	// PermissionDeniedMsg is the generic reason shown for an authorization
	// denial; the underlying cause is logged, never surfaced.
	PermissionDeniedMsg = "You do not have permission to access this page."
)
