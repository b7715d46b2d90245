package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

type Designation struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:150;not null;unique" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func GetDesignations(ctx context.Context) ([]Designation, error) {
	var designations []Designation
	err := config.GetDB().WithContext(ctx).
		Order("name ASC").
		Find(&designations).Error
	return designations, err
}

func GetDesignationById(ctx context.Context, id int) (*Designation, error) {
	return utils.FetchSingleModel[Designation](ctx, id)
}

func CreateDesignation(ctx context.Context, designation *Designation) error {
	if designation.Name == "" {
		return utils.ErrorInvalidInput
	}
	if err := utils.ValidateUnique[Designation](ctx, "name", designation.Name, 0); err != nil {
		return err
	}
	return config.GetDB().WithContext(ctx).Create(designation).Error
}

func UpdateDesignation(ctx context.Context, id int, updates map[string]interface{}) (*Designation, error) {
	designation, err := GetDesignationById(ctx, id)
	if err != nil {
		return nil, err
	}
	if name, ok := updates["name"].(string); ok {
		if name == "" {
			return nil, utils.ErrorInvalidInput
		}
		if err := utils.ValidateUnique[Designation](ctx, "name", name, id); err != nil {
			return nil, err
		}
	}
	err = config.GetDB().WithContext(ctx).Model(designation).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return GetDesignationById(ctx, id)
}

func DeleteDesignation(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Designation](ctx, id); err != nil {
		return err
	}
	inUse, err := utils.ResourceCountWhere[User](ctx, "designation_id = ?", id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return utils.ErrorInvalidInput
	}
	return config.GetDB().WithContext(ctx).Delete(&Designation{}, id).Error
}
