package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// AdminRecord is the permission document kept per admin actor: the
// authoritative role copy plus the delegated feature map.
type AdminRecord struct {
	Role        Role
	Permissions PermissionMap
}

// ErrRecordNotFound is returned by a PermissionStore when no admin
// record exists for the actor.
var ErrRecordNotFound = errors.New("admin permission record not found")

// PermissionStore is the external collaborator holding admin permission
// records. Implementations validate and default the stored shape so the
// resolver never sees malformed input.
type PermissionStore interface {
	// GetAdminRecord returns the record for the actor or ErrRecordNotFound.
	GetAdminRecord(ctx context.Context, actorID string) (AdminRecord, error)

	// SetAdminPermissions replaces the actor's permission map. Callers
	// must invalidate the cache entry for actorID after a successful save.
	SetAdminPermissions(ctx context.Context, actorID string, perms PermissionMap) error
}

// Service answers feature and route permission questions for admin
// actors, backed by the store and fronted by the TTL cache. Every store
// failure resolves to deny; a permission check never propagates an error
// to its caller.
type Service struct {
	store PermissionStore
	cache *Cache
	group singleflight.Group
}

// NewService creates a new permission service.
func NewService(store PermissionStore, cache *Cache) *Service {
	if cache == nil {
		cache = NewCache()
	}

	return &Service{store: store, cache: cache}
}

// Permissions returns the actor's permission map, from the cache when
// fresh and from the store otherwise. Concurrent misses for the same
// actor are coalesced into a single fetch. A missing record resolves to
// an empty map, not an error: absence is denial, not failure.
func (s *Service) Permissions(ctx context.Context, actorID string) (PermissionMap, error) {
	if perms, ok := s.cache.Get(actorID); ok {
		cacheHits.Inc()
		return perms, nil
	}

	cacheMisses.Inc()

	v, err, _ := s.group.Do(actorID, func() (interface{}, error) {
		seq := s.cache.BeginFetch(actorID)

		rec, err := s.store.GetAdminRecord(ctx, actorID)
		if errors.Is(err, ErrRecordNotFound) {
			perms := PermissionMap{}
			s.cache.CompleteFetch(actorID, seq, perms)

			return perms, nil
		}

		if err != nil {
			s.cache.AbandonFetch(actorID)

			return nil, err
		}

		s.cache.CompleteFetch(actorID, seq, rec.Permissions)

		return rec.Permissions, nil
	})
	if err != nil {
		return nil, err
	}

	perms, ok := v.(PermissionMap)
	if !ok {
		return nil, errors.New("unexpected fetch result type")
	}

	return perms, nil
}

// FeatureAllowed reports whether the actor may use the feature. Store
// errors are logged and resolved as deny.
func (s *Service) FeatureAllowed(ctx context.Context, role Role, actorID string, featureID string) bool {
	if role == RoleMainAdmin {
		return true
	}

	if role != RoleAdmin {
		return false
	}

	perms, err := s.Permissions(ctx, actorID)
	if err != nil {
		log.Error().Err(err).Str("actor", actorID).Str("feature", featureID).
			Msg("permission fetch failed, denying")
		checkDenials.Inc()

		return false
	}

	allowed := HasFeaturePermission(role, perms, featureID)
	if !allowed {
		checkDenials.Inc()
	}

	return allowed
}

// RouteAllowed reports whether the actor may reach the admin route.
// Unmapped routes stay open without touching the store; see
// CanAccessRoute for why.
func (s *Service) RouteAllowed(ctx context.Context, role Role, actorID string, route string) bool {
	if role == RoleMainAdmin {
		return true
	}

	featureID, mapped := RouteFeature(route)
	if !mapped {
		return true
	}

	if featureID == FeatureAdminPermissions {
		return false
	}

	if role != RoleAdmin {
		return false
	}

	perms, err := s.Permissions(ctx, actorID)
	if err != nil {
		log.Error().Err(err).Str("actor", actorID).Str("route", route).
			Msg("permission fetch failed, denying route")
		checkDenials.Inc()

		return false
	}

	return HasFeaturePermission(role, perms, featureID)
}

// SetPermissions writes a new permission map for the actor and
// invalidates its cache entry, honoring the invalidation contract.
func (s *Service) SetPermissions(ctx context.Context, actorID string, perms PermissionMap) error {
	if err := s.store.SetAdminPermissions(ctx, actorID, perms); err != nil {
		return err
	}

	s.cache.Invalidate(actorID)

	return nil
}

// InvalidateActor drops the actor's cached permission map.
func (s *Service) InvalidateActor(actorID string) {
	s.cache.Invalidate(actorID)
}

// InvalidateAll drops every cached permission map.
func (s *Service) InvalidateAll() {
	s.cache.InvalidateAll()
}

// CacheLen reports the number of cached permission maps.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}
