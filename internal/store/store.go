// Package store implements the permission store adapter over the portal
// database. It is the boundary where the schemaless shape of stored
// permission data is validated and defaulted, so the resolver only ever
// sees a well-typed role and permission map.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/campushub/portal/internal/auth"
	"github.com/campushub/portal/internal/db/models"
)

// ErrUnknownFeature is returned when a write contains a feature ID
// outside the closed feature set.
var ErrUnknownFeature = errors.New("unknown feature id")

// Store is the gorm-backed permission store.
type Store struct {
	db *gorm.DB
}

// New creates a permission store over the given database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetAdminRecord loads the actor's role and permission map. Rows whose
// feature ID fell out of the closed set (a removed feature, or a stray
// write) are dropped with a warning instead of reaching the resolver.
func (s *Store) GetAdminRecord(ctx context.Context, actorID string) (auth.AdminRecord, error) {
	userID, err := strconv.ParseUint(actorID, 10, 64)
	if err != nil {
		return auth.AdminRecord{}, fmt.Errorf("malformed actor id %q: %w", actorID, err)
	}

	var user models.User

	err = s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return auth.AdminRecord{}, auth.ErrRecordNotFound
	}

	if err != nil {
		return auth.AdminRecord{}, fmt.Errorf("failed to load user for actor %s: %w", actorID, err)
	}

	var rows []models.AdminPermission

	err = s.db.WithContext(ctx).Where("actor_id = ?", actorID).Find(&rows).Error
	if err != nil {
		return auth.AdminRecord{}, fmt.Errorf("failed to load permissions for actor %s: %w", actorID, err)
	}

	perms := make(auth.PermissionMap, len(rows))

	for _, row := range rows {
		if !auth.KnownFeature(row.Feature) {
			log.Warn().Str("actor", actorID).Str("feature", row.Feature).
				Msg("dropping permission row for unknown feature")

			continue
		}

		perms[row.Feature] = row.Granted
	}

	return auth.AdminRecord{
		Role:        auth.ParseRole(user.Role),
		Permissions: perms,
	}, nil
}

// SetAdminPermissions replaces the actor's permission map in one
// transaction. Unknown feature IDs are rejected outright; a permission
// console sending one is misconfigured.
func (s *Store) SetAdminPermissions(ctx context.Context, actorID string, perms auth.PermissionMap) error {
	for feature := range perms {
		if !auth.KnownFeature(feature) {
			return fmt.Errorf("%w: %s", ErrUnknownFeature, feature)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("actor_id = ?", actorID).
			Delete(&models.AdminPermission{}).Error; err != nil {
			return fmt.Errorf("failed to clear permissions for actor %s: %w", actorID, err)
		}

		for feature, granted := range perms {
			row := models.AdminPermission{
				ActorID: actorID,
				Feature: feature,
				Granted: granted,
			}

			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to write permission %s for actor %s: %w", feature, actorID, err)
			}
		}

		return nil
	})
}

// ListAdminRecords returns the record of every admin and mainadmin
// account, for the permission console's overview.
func (s *Store) ListAdminRecords(ctx context.Context) (map[string]auth.AdminRecord, error) {
	var admins []models.User

	err := s.db.WithContext(ctx).
		Where("role IN ?", []string{auth.RoleAdmin.String(), auth.RoleMainAdmin.String()}).
		Find(&admins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list admin accounts: %w", err)
	}

	records := make(map[string]auth.AdminRecord, len(admins))

	for i := range admins {
		rec, err := s.GetAdminRecord(ctx, admins[i].ActorID())
		if err != nil {
			return nil, err
		}

		records[admins[i].ActorID()] = rec
	}

	return records, nil
}

// Interface guard: Store must satisfy the collaborator contract the
// permission service consumes.
var _ auth.PermissionStore = (*Store)(nil)
