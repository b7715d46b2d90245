package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

// Role carries a permission list as a JSON array of strings, e.g.
// ["points:write","users:read"]. The permission middleware parses it once per
// request from the cached session user.
type Role struct {
	ID          int        `gorm:"primary_key" json:"id"`
	Name        string     `gorm:"size:100;not null;unique" json:"name"`
	Description string     `gorm:"size:500" json:"description"`
	Permissions string     `gorm:"type:json" json:"permissions"`
	Status      UserStatus `gorm:"type:enum('Active','Inactive','Suspended');default:'Active'" json:"status"`
	CreatedBy   int        `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PermissionList decodes the stored JSON array. A broken column yields an
// empty list, which denies everything rather than allowing everything.
func (r *Role) PermissionList() []string {
	if r.Permissions == "" {
		return nil
	}
	var perms []string
	if err := utils.UnmarshalFromJSON([]byte(r.Permissions), &perms); err != nil {
		return nil
	}
	return perms
}

func (r *Role) HasPermission(permission string) bool {
	if r.Name == SuperAdminRoleName {
		return true
	}
	for _, p := range r.PermissionList() {
		if p == permission {
			return true
		}
	}
	return false
}

func GetRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := config.GetDB().WithContext(ctx).
		Where("name <> ?", SuperAdminRoleName).
		Order("name ASC").
		Find(&roles).Error
	return roles, err
}

func GetRoleById(ctx context.Context, id int) (*Role, error) {
	return utils.FetchSingleModel[Role](ctx, id)
}

func CreateRole(ctx context.Context, role *Role) error {
	if role.Name == "" || role.Name == SuperAdminRoleName {
		return utils.ErrorInvalidInput
	}
	if role.Permissions == "" {
		role.Permissions = "[]"
	}
	return config.GetDB().WithContext(ctx).Create(role).Error
}

func UpdateRole(ctx context.Context, id int, updates map[string]interface{}) (*Role, error) {
	role, err := GetRoleById(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.Name == SuperAdminRoleName {
		return nil, utils.ErrorInvalidInput
	}
	if name, ok := updates["name"].(string); ok && (name == "" || name == SuperAdminRoleName) {
		return nil, utils.ErrorInvalidInput
	}
	err = config.GetDB().WithContext(ctx).Model(role).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return GetRoleById(ctx, id)
}

// DeleteRole refuses while users still hold the role.
func DeleteRole(ctx context.Context, id int) error {
	role, err := GetRoleById(ctx, id)
	if err != nil {
		return err
	}
	if role.Name == SuperAdminRoleName {
		return utils.ErrorInvalidInput
	}
	inUse, err := utils.ResourceCountWhere[User](ctx, "role_id = ?", id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return utils.ErrorInvalidInput
	}
	return config.GetDB().WithContext(ctx).Delete(&Role{}, id).Error
}
