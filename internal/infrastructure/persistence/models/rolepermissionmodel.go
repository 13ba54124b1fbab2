package models

import (
	"time"

	"github.com/inventra-labs/gatekeeper/internal/shared/constants"
)

// RolePermissionModel stores one granted permission per row.
type RolePermissionModel struct {
	ID         uint   `gorm:"primaryKey"`
	Role       string `gorm:"not null;size:20;uniqueIndex:idx_role_permission"`
	Permission string `gorm:"not null;size:100;uniqueIndex:idx_role_permission"`
	CreatedAt  time.Time
}

func (RolePermissionModel) TableName() string {
	return constants.TableRolePermissions
}

// All returns every model managed by migrations, in creation order.
func All() []any {
	return []any{&UserModel{}, &RolePermissionModel{}}
}
