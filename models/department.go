package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

// Department supports one level of nesting through ParentId. The tree is
// assembled in Go; the table stays flat.
type Department struct {
	ID          int           `gorm:"primary_key" json:"id"`
	Name        string        `gorm:"size:150;not null;unique" json:"name"`
	Description string        `gorm:"size:500" json:"description"`
	LeadId      *int          `json:"lead_id"`
	Lead        *User         `gorm:"foreignKey:LeadId" json:"lead,omitempty"`
	ParentId    *int          `gorm:"index" json:"parent_id"`
	Children    []*Department `gorm:"-" json:"children,omitempty"`
	CreatedBy   int           `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// GetDepartmentTree returns root departments with children attached.
func GetDepartmentTree(ctx context.Context) ([]*Department, error) {
	var departments []*Department
	err := config.GetDB().WithContext(ctx).
		Preload("Lead").
		Order("name ASC").
		Find(&departments).Error
	if err != nil {
		return nil, err
	}

	byId := make(map[int]*Department, len(departments))
	for _, d := range departments {
		byId[d.ID] = d
	}
	var roots []*Department
	for _, d := range departments {
		if d.ParentId != nil {
			if parent, ok := byId[*d.ParentId]; ok {
				parent.Children = append(parent.Children, d)
				continue
			}
		}
		roots = append(roots, d)
	}
	return roots, nil
}

func GetDepartmentById(ctx context.Context, id int) (*Department, error) {
	return utils.FetchSingleModel[Department](ctx, id, "Lead")
}

func CreateDepartment(ctx context.Context, department *Department) error {
	if department.Name == "" {
		return utils.ErrorInvalidInput
	}
	if err := utils.ValidateUnique[Department](ctx, "name", department.Name, 0); err != nil {
		return err
	}
	if department.ParentId != nil {
		if err := utils.ValidateResourceId[Department](ctx, *department.ParentId); err != nil {
			return err
		}
	}
	if department.LeadId != nil {
		if err := utils.ValidateResourceId[User](ctx, *department.LeadId); err != nil {
			return err
		}
	}
	return config.GetDB().WithContext(ctx).Create(department).Error
}

func UpdateDepartment(ctx context.Context, id int, updates map[string]interface{}) (*Department, error) {
	department, err := GetDepartmentById(ctx, id)
	if err != nil {
		return nil, err
	}
	if name, ok := updates["name"].(string); ok {
		if name == "" {
			return nil, utils.ErrorInvalidInput
		}
		if err := utils.ValidateUnique[Department](ctx, "name", name, id); err != nil {
			return nil, err
		}
	}
	if parentId, ok := updates["parent_id"]; ok && parentId != nil {
		// A department cannot be its own parent.
		if pid, ok := parentId.(int); ok {
			if pid == id {
				return nil, utils.ErrorInvalidInput
			}
			if err := utils.ValidateResourceId[Department](ctx, pid); err != nil {
				return nil, err
			}
		}
	}
	err = config.GetDB().WithContext(ctx).Model(department).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return GetDepartmentById(ctx, id)
}

// DeleteDepartment refuses while employees or child departments remain.
func DeleteDepartment(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Department](ctx, id); err != nil {
		return err
	}
	inUse, err := utils.ResourceCountWhere[User](ctx, "department_id = ?", id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return utils.ErrorInvalidInput
	}
	children, err := utils.ResourceCountWhere[Department](ctx, "parent_id = ?", id)
	if err != nil {
		return err
	}
	if children > 0 {
		return utils.ErrorInvalidInput
	}
	return config.GetDB().WithContext(ctx).Delete(&Department{}, id).Error
}
