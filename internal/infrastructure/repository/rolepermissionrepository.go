package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inventra-labs/gatekeeper/internal/domain/permission"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/persistence/models"
	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
)

type RolePermissionRepositoryImpl struct {
	db *gorm.DB
}

func NewRolePermissionRepository(db *gorm.DB) permission.RolePermissionRepository {
	return &RolePermissionRepositoryImpl{db: db}
}

func (r *RolePermissionRepositoryImpl) List(ctx context.Context) (permission.RolePermissionSet, error) {
	var rows []models.RolePermissionModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list role permissions: %w", err)
	}

	set := make(permission.RolePermissionSet)
	for _, row := range rows {
		role, err := authorization.ParseRole(row.Role)
		if err != nil {
			continue
		}
		set[role] = append(set[role], permission.Permission(row.Permission))
	}
	return set.Normalize(), nil
}

func (r *RolePermissionRepositoryImpl) Get(ctx context.Context, role authorization.Role) ([]permission.Permission, error) {
	var rows []models.RolePermissionModel
	if err := r.db.WithContext(ctx).Where("role = ?", string(role)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get permissions for role %s: %w", role, err)
	}
	perms := make([]permission.Permission, 0, len(rows))
	for _, row := range rows {
		perms = append(perms, permission.Permission(row.Permission))
	}
	return permission.SortPermissions(perms), nil
}

func (r *RolePermissionRepositoryImpl) Replace(ctx context.Context, role authorization.Role, perms []permission.Permission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role = ?", string(role)).Delete(&models.RolePermissionModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear permissions for role %s: %w", role, err)
		}
		rows := toRows(role, permission.SortPermissions(perms))
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert permissions for role %s: %w", role, err)
		}
		return nil
	})
}

func (r *RolePermissionRepositoryImpl) Add(ctx context.Context, role authorization.Role, p permission.Permission) error {
	row := models.RolePermissionModel{Role: string(role), Permission: string(p)}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to add permission %s to role %s: %w", p, role, err)
	}
	return nil
}

func (r *RolePermissionRepositoryImpl) Remove(ctx context.Context, role authorization.Role, p permission.Permission) error {
	err := r.db.WithContext(ctx).
		Where("role = ? AND permission = ?", string(role), string(p)).
		Delete(&models.RolePermissionModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove permission %s from role %s: %w", p, role, err)
	}
	return nil
}

// SeedIfEmpty installs defaults when the table has no rows at all.
func (r *RolePermissionRepositoryImpl) SeedIfEmpty(ctx context.Context, defaults permission.RolePermissionSet) (bool, error) {
	seeded := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.RolePermissionModel{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count role permissions: %w", err)
		}
		if count > 0 {
			return nil
		}

		var rows []models.RolePermissionModel
		for _, role := range authorization.AllRoles() {
			rows = append(rows, toRows(role, defaults[role])...)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to seed role permissions: %w", err)
		}
		seeded = true
		return nil
	})
	return seeded, err
}

func toRows(role authorization.Role, perms []permission.Permission) []models.RolePermissionModel {
	rows := make([]models.RolePermissionModel, 0, len(perms))
	for _, p := range perms {
		rows = append(rows, models.RolePermissionModel{Role: string(role), Permission: string(p)})
	}
	return rows
}
