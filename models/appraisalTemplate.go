package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/shopspring/decimal"
)

// AppraisalTemplate defines a reward scheme: which departments and roles it
// targets (JSON arrays of ids), how many points an appraisal under it costs,
// and the cash amount attached.
type AppraisalTemplate struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Title       string          `gorm:"size:200;not null" json:"title"`
	Type        string          `gorm:"size:100" json:"type"`
	Period      string          `gorm:"size:100" json:"period"`
	Departments string          `gorm:"type:json" json:"departments"`
	Roles       string          `gorm:"type:json" json:"roles"`
	Points      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"points"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4)" json:"amount"`
	Reason      string          `gorm:"size:500" json:"reason"`
	Notes       string          `gorm:"size:1000" json:"notes"`
	CreatedBy   int             `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (t *AppraisalTemplate) DepartmentIds() []int {
	return decodeIdList(t.Departments)
}

func (t *AppraisalTemplate) RoleIds() []int {
	return decodeIdList(t.Roles)
}

func decodeIdList(raw string) []int {
	if raw == "" {
		return nil
	}
	var ids []int
	if err := utils.UnmarshalFromJSON([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

func GetAppraisalTemplates(ctx context.Context, search string) ([]AppraisalTemplate, error) {
	db := config.GetDB().WithContext(ctx).Model(&AppraisalTemplate{})
	if search != "" {
		db = db.Where("title LIKE ?", "%"+search+"%")
	}
	var templates []AppraisalTemplate
	err := db.Order("id DESC").Find(&templates).Error
	return templates, err
}

func GetAppraisalTemplateById(ctx context.Context, id int) (*AppraisalTemplate, error) {
	return utils.FetchSingleModel[AppraisalTemplate](ctx, id)
}

func CreateAppraisalTemplate(ctx context.Context, template *AppraisalTemplate) error {
	if template.Title == "" || !template.Points.IsPositive() {
		return utils.ErrorInvalidInput
	}
	if deptIds := template.DepartmentIds(); len(deptIds) > 0 {
		if err := utils.ValidateResourcesId[Department](ctx, deptIds); err != nil {
			return err
		}
	}
	if roleIds := template.RoleIds(); len(roleIds) > 0 {
		if err := utils.ValidateResourcesId[Role](ctx, roleIds); err != nil {
			return err
		}
	}
	if template.Departments == "" {
		template.Departments = "[]"
	}
	if template.Roles == "" {
		template.Roles = "[]"
	}
	return config.GetDB().WithContext(ctx).Create(template).Error
}

func UpdateAppraisalTemplate(ctx context.Context, id int, updates map[string]interface{}) (*AppraisalTemplate, error) {
	template, err := GetAppraisalTemplateById(ctx, id)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Model(template).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return GetAppraisalTemplateById(ctx, id)
}

// DeleteAppraisalTemplate refuses while appraisals reference the template.
func DeleteAppraisalTemplate(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[AppraisalTemplate](ctx, id); err != nil {
		return err
	}
	inUse, err := utils.ResourceCountWhere[Appraisal](ctx, "template_id = ?", id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return utils.ErrorInvalidInput
	}
	return config.GetDB().WithContext(ctx).Delete(&AppraisalTemplate{}, id).Error
}

// GetMatchedUsers returns active employees in the template's departments and
// roles whose points balance does not exceed the template's points cost.
func GetMatchedUsers(ctx context.Context, templateId int) ([]User, error) {
	template, err := GetAppraisalTemplateById(ctx, templateId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB().WithContext(ctx).Model(&User{}).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name <> ?", SuperAdminRoleName).
		Where("users.status = ?", UserStatusActive).
		Where("users.total_points <= ?", template.Points)

	if deptIds := template.DepartmentIds(); len(deptIds) > 0 {
		db = db.Where("users.department_id IN ?", deptIds)
	}
	if roleIds := template.RoleIds(); len(roleIds) > 0 {
		db = db.Where("users.role_id IN ?", roleIds)
	}

	var users []User
	err = db.Preload("Role").Preload("Department").Preload("Designation").
		Order("users.first_name ASC").
		Find(&users).Error
	return users, err
}
