package auth

import (
	"github.com/rs/zerolog/log"
)

// PermissionMap maps a feature ID to whether the admin holds it.
// Absence of a key means not granted.
type PermissionMap map[string]bool

// HasFeaturePermission decides whether an actor with the given role and
// permission map may use a feature. The contract is strictly fail-closed:
// only an explicit true grants, everything else denies. The main admin
// bypasses the map entirely.
func HasFeaturePermission(role Role, perms PermissionMap, featureID string) bool {
	if role == RoleMainAdmin {
		return true
	}

	if role != RoleAdmin {
		// the permission map is only meaningful for the admin role
		return false
	}

	if !KnownFeature(featureID) {
		// a feature outside the closed set points at a bug in the
		// route map or a caller, not at user input
		log.Warn().Str("feature", featureID).Msg("permission check for unknown feature")

		return false
	}

	if perms == nil {
		return false
	}

	return perms[featureID]
}

// CanAccessRoute decides whether an actor may reach an admin route.
//
// Routes missing from the route map default to ALLOW. This is a
// deliberate backward-compatibility carve-out for pages that predate the
// permission system, and the one exception to the fail-closed policy.
// New admin routes must be added to routeFeatures to be gated.
func CanAccessRoute(role Role, perms PermissionMap, route string) bool {
	if role == RoleMainAdmin {
		return true
	}

	featureID, mapped := RouteFeature(route)
	if !mapped {
		return true
	}

	if featureID == FeatureAdminPermissions {
		// the permission console is never delegable
		return false
	}

	return HasFeaturePermission(role, perms, featureID)
}
