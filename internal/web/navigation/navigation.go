// Package navigation provides the admin navigation tree and filters it
// down to the entries the current actor may actually open.
package navigation

import (
	"github.com/campushub/portal/internal/auth"
)

// Item represents a single admin navigation entry.
type Item struct {
	Title   string `json:"title"`
	Route   string `json:"route"`
	Feature string `json:"feature,omitempty"`
}

// adminItems is the full admin navigation, one entry per gated feature.
// Order matters; it is the order the console renders.
var adminItems = []Item{
	{Title: "Events", Route: "/admin/events", Feature: auth.FeatureManageEvents},
	{Title: "Team", Route: "/admin/team", Feature: auth.FeatureTeamProfiles},
	{Title: "Notifications", Route: "/admin/notifications", Feature: auth.FeatureNotifications},
	{Title: "Galleries", Route: "/admin/galleries", Feature: auth.FeatureGalleries},
	{Title: "Settings", Route: "/admin/settings", Feature: auth.FeatureSettings},
	{Title: "Users", Route: "/admin/users", Feature: auth.FeatureUserManagement},
	{Title: "Form Templates", Route: "/admin/forms", Feature: auth.FeatureFormTemplates},
	{Title: "Requests", Route: "/admin/requests", Feature: auth.FeatureUserRequests},
	{Title: "Feedback", Route: "/admin/feedback", Feature: auth.FeatureFeedback},
	{Title: "Forum", Route: "/admin/forum", Feature: auth.FeatureForumModeration},
	{Title: "Warnings", Route: "/admin/warnings", Feature: auth.FeatureUserWarnings},
	{Title: "Permissions", Route: "/admin/permissions", Feature: auth.FeatureAdminPermissions},
}

// AdminItems returns the unfiltered admin navigation.
func AdminItems() []Item {
	out := make([]Item, len(adminItems))
	copy(out, adminItems)

	return out
}

// Filter returns the admin navigation entries the actor may open, using
// the same resolver the route guard uses so the menu and the guard can
// never disagree.
func Filter(role auth.Role, perms auth.PermissionMap) []Item {
	visible := make([]Item, 0, len(adminItems))

	for _, item := range adminItems {
		if item.Feature == auth.FeatureAdminPermissions {
			// never delegable, shown to the main admin only
			if role == auth.RoleMainAdmin {
				visible = append(visible, item)
			}

			continue
		}

		if auth.HasFeaturePermission(role, perms, item.Feature) {
			visible = append(visible, item)
		}
	}

	return visible
}
