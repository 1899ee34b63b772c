package auth

// Feature constants define the delegable admin capabilities. Each one is
// granted or withheld per admin via the permission map; absence of a key
// means not granted.
const (
	// FeatureManageEvents allows creating, editing and deleting portal events.
	FeatureManageEvents = "manageEvents"
	// FeatureTeamProfiles allows maintaining the team member directory.
	FeatureTeamProfiles = "teamProfiles"
	// FeatureNotifications allows sending portal-wide notifications.
	FeatureNotifications = "notifications"
	// FeatureGalleries allows managing photo galleries.
	FeatureGalleries = "galleries"
	// FeatureSettings allows changing portal settings.
	FeatureSettings = "settings"
	// FeatureUserManagement allows managing member accounts.
	FeatureUserManagement = "userManagement"
	// FeatureFormTemplates allows maintaining application form templates.
	FeatureFormTemplates = "formTemplates"
	// FeatureUserRequests allows handling membership and role requests.
	FeatureUserRequests = "userRequests"
	// FeatureFeedback allows reading and resolving feedback submissions.
	FeatureFeedback = "feedback"
	// FeatureForumModeration allows moderating forum posts and replies.
	FeatureForumModeration = "forumModeration"
	// FeatureUserWarnings allows issuing warnings to members.
	FeatureUserWarnings = "userWarnings"
	// FeatureAdminPermissions is the permission console itself. It is never
	// delegable: the route it gates is reachable by the main admin only.
	FeatureAdminPermissions = "adminPermissions"
)

// Features is the closed set of valid feature IDs. It is static
// configuration; features are not discovered at runtime.
var Features = map[string]struct{}{
	FeatureManageEvents:     {},
	FeatureTeamProfiles:     {},
	FeatureNotifications:    {},
	FeatureGalleries:        {},
	FeatureSettings:         {},
	FeatureUserManagement:   {},
	FeatureFormTemplates:    {},
	FeatureUserRequests:     {},
	FeatureFeedback:         {},
	FeatureForumModeration:  {},
	FeatureUserWarnings:     {},
	FeatureAdminPermissions: {},
}

// KnownFeature reports whether the feature ID belongs to the closed set.
func KnownFeature(featureID string) bool {
	_, ok := Features[featureID]
	return ok
}

// routeFeatures is the static route to feature map for the admin area.
// Routes added before the permission system existed are intentionally
// absent; see CanAccessRoute for how unmapped routes are treated.
var routeFeatures = map[string]string{
	"/admin/events":        FeatureManageEvents,
	"/admin/team":          FeatureTeamProfiles,
	"/admin/notifications": FeatureNotifications,
	"/admin/galleries":     FeatureGalleries,
	"/admin/settings":      FeatureSettings,
	"/admin/users":         FeatureUserManagement,
	"/admin/forms":         FeatureFormTemplates,
	"/admin/requests":      FeatureUserRequests,
	"/admin/feedback":      FeatureFeedback,
	"/admin/forum":         FeatureForumModeration,
	"/admin/warnings":      FeatureUserWarnings,
	"/admin/permissions":   FeatureAdminPermissions,
}

// RouteFeature resolves the feature gating an admin route. The second
// return value is false for routes outside the map.
func RouteFeature(route string) (string, bool) {
	f, ok := routeFeatures[route]
	return f, ok
}
