package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"gorm.io/gorm"
)

// Appraisal is one employee's reward under a template. Creating one costs the
// template's points, posted as a ledger deduction; rejection posts a
// compensating bonus. Those side effects live in the appraisal workflow, this
// model is plain CRUD.
type Appraisal struct {
	ID              int                `gorm:"primary_key" json:"id"`
	EmployeeId      int                `gorm:"not null;index" json:"employee_id"`
	Employee        *User              `gorm:"foreignKey:EmployeeId" json:"employee,omitempty"`
	TemplateId      int                `gorm:"not null;index" json:"template_id"`
	Template        *AppraisalTemplate `gorm:"foreignKey:TemplateId" json:"template,omitempty"`
	Period          string             `gorm:"size:100" json:"period"`
	DepartmentId    *int               `json:"department_id"`
	RoleId          *int               `json:"role_id"`
	Status          ApprovalStatus     `gorm:"type:enum('Pending','Approved','Rejected');default:'Pending';index" json:"status"`
	ManagerStatus   ApprovalStatus     `gorm:"type:enum('Pending','Approved','Rejected');default:'Pending'" json:"manager_status"`
	AdminStatus     ApprovalStatus     `gorm:"type:enum('Pending','Approved','Rejected');default:'Pending'" json:"admin_status"`
	ManagerFeedback string             `gorm:"size:1000" json:"manager_feedback"`
	AdminFeedback   string             `gorm:"size:1000" json:"admin_feedback"`
	SelfFeedback    string             `gorm:"size:1000" json:"self_feedback"`
	PdfUrl          string             `gorm:"size:500" json:"pdf_url"`
	CreatedBy       int                `gorm:"not null;index" json:"created_by"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// AppraisalFilter narrows the listing. ManagerId restricts to appraisals of
// the manager's direct reports.
type AppraisalFilter struct {
	EmployeeId *int            `json:"employee_id"`
	CreatedBy  *int            `json:"created_by"`
	ManagerId  *int            `json:"manager_id"`
	TemplateId *int            `json:"template_id"`
	Status     *ApprovalStatus `json:"status"`
	Search     string          `json:"search"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}

func GetAppraisals(ctx context.Context, filter AppraisalFilter) ([]Appraisal, *Pagination, error) {
	db := config.GetDB().WithContext(ctx).Model(&Appraisal{})

	if filter.EmployeeId != nil {
		db = db.Where("appraisals.employee_id = ?", *filter.EmployeeId)
	}
	if filter.CreatedBy != nil {
		db = db.Where("appraisals.created_by = ?", *filter.CreatedBy)
	}
	if filter.ManagerId != nil {
		db = db.Where("appraisals.employee_id IN (SELECT id FROM users WHERE reporting_to = ?)", *filter.ManagerId)
	}
	if filter.TemplateId != nil {
		db = db.Where("appraisals.template_id = ?", *filter.TemplateId)
	}
	if filter.Status != nil {
		db = db.Where("appraisals.status = ?", *filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Joins("JOIN users ON users.id = appraisals.employee_id").
			Where("users.first_name LIKE ? OR users.last_name LIKE ? OR users.employee_code LIKE ?", like, like, like)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, nil, err
	}
	pagination := NewPagination(filter.Page, filter.Limit, total)

	var appraisals []Appraisal
	err := db.Preload("Employee").Preload("Template").
		Order("appraisals.id DESC").
		Scopes(Paginate(pagination)).
		Find(&appraisals).Error
	if err != nil {
		return nil, nil, err
	}
	return appraisals, pagination, nil
}

func GetAppraisalById(ctx context.Context, id int) (*Appraisal, error) {
	var appraisal Appraisal
	err := config.GetDB().WithContext(ctx).
		Preload("Employee").Preload("Template").
		First(&appraisal, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &appraisal, nil
}

// CreateAppraisal inserts the row inside the given transaction so the caller
// can post the ledger deduction atomically alongside it.
func CreateAppraisal(ctx context.Context, tx *gorm.DB, appraisal *Appraisal) error {
	appraisal.Status = ApprovalStatusPending
	appraisal.ManagerStatus = ApprovalStatusPending
	appraisal.AdminStatus = ApprovalStatusPending
	return tx.WithContext(ctx).Create(appraisal).Error
}

// UpdateAppraisal applies field edits. Status transitions go through the
// appraisal workflow, never here.
func UpdateAppraisal(ctx context.Context, id int, updates map[string]interface{}) (*Appraisal, error) {
	for _, forbidden := range []string{"status", "manager_status", "admin_status"} {
		delete(updates, forbidden)
	}
	appraisal, err := GetAppraisalById(ctx, id)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Model(appraisal).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return GetAppraisalById(ctx, id)
}

func DeleteAppraisal(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Appraisal](ctx, id); err != nil {
		return err
	}
	return config.GetDB().WithContext(ctx).Delete(&Appraisal{}, id).Error
}

// SetDecision writes a manager or admin verdict with feedback and derives the
// overall status: any rejection rejects, both approvals approve.
func SetDecision(ctx context.Context, tx *gorm.DB, id int, byAdmin bool, decision ApprovalStatus, feedback string) (*Appraisal, error) {
	if decision != ApprovalStatusApproved && decision != ApprovalStatusRejected {
		return nil, utils.ErrorInvalidInput
	}

	var appraisal Appraisal
	err := tx.WithContext(ctx).First(&appraisal, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if byAdmin {
		updates["admin_status"] = decision
		if feedback != "" {
			updates["admin_feedback"] = feedback
		}
		appraisal.AdminStatus = decision
	} else {
		updates["manager_status"] = decision
		if feedback != "" {
			updates["manager_feedback"] = feedback
		}
		appraisal.ManagerStatus = decision
	}

	overall := ApprovalStatusPending
	if appraisal.ManagerStatus == ApprovalStatusRejected || appraisal.AdminStatus == ApprovalStatusRejected {
		overall = ApprovalStatusRejected
	} else if appraisal.ManagerStatus == ApprovalStatusApproved && appraisal.AdminStatus == ApprovalStatusApproved {
		overall = ApprovalStatusApproved
	}
	updates["status"] = overall
	appraisal.Status = overall

	err = tx.WithContext(ctx).Model(&Appraisal{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return &appraisal, nil
}
