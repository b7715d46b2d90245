package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/shopspring/decimal"
)

// AdminDashboard aggregates platform-wide counters. Read-only queries, the
// ledger is never touched here.
type AdminDashboard struct {
	TotalEmployees      int64           `json:"total_employees"`
	ActiveEmployees     int64           `json:"active_employees"`
	NewThisMonth        int64           `json:"new_this_month"`
	Departments         int64           `json:"departments"`
	PendingAppraisals   int64           `json:"pending_appraisals"`
	BonusesThisMonth    int64           `json:"bonuses_this_month"`
	DeductionsThisMonth int64           `json:"deductions_this_month"`
	PointsIssued        decimal.Decimal `json:"points_issued"`
}

func GetAdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	db := config.GetDB().WithContext(ctx)
	monthStart, monthEnd := utils.GetThisMonthRange()

	var out AdminDashboard
	steps := []func() error{
		func() error {
			return db.Model(&User{}).
				Joins("JOIN roles ON roles.id = users.role_id").
				Where("roles.name <> ?", SuperAdminRoleName).
				Count(&out.TotalEmployees).Error
		},
		func() error {
			return db.Model(&User{}).
				Joins("JOIN roles ON roles.id = users.role_id").
				Where("roles.name <> ? AND users.status = ?", SuperAdminRoleName, UserStatusActive).
				Count(&out.ActiveEmployees).Error
		},
		func() error {
			return db.Model(&User{}).
				Where("created_at BETWEEN ? AND ?", monthStart, monthEnd).
				Count(&out.NewThisMonth).Error
		},
		func() error {
			return db.Model(&Department{}).Count(&out.Departments).Error
		},
		func() error {
			return db.Model(&Appraisal{}).
				Where("status = ?", ApprovalStatusPending).
				Count(&out.PendingAppraisals).Error
		},
		func() error {
			return db.Model(&Point{}).
				Where("kind = ? AND created_at BETWEEN ? AND ?", PointKindBonus, monthStart, monthEnd).
				Count(&out.BonusesThisMonth).Error
		},
		func() error {
			return db.Model(&Point{}).
				Where("kind = ? AND created_at BETWEEN ? AND ?", PointKindDeduction, monthStart, monthEnd).
				Count(&out.DeductionsThisMonth).Error
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	err := db.Model(&Point{}).
		Select("COALESCE(SUM(delta), 0)").
		Where("kind = ?", PointKindBonus).
		Scan(&out.PointsIssued).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// HrDashboard is the HR view: headcount plus today's attendance tally.
type HrDashboard struct {
	TotalEmployees    int64               `json:"total_employees"`
	PendingAppraisals int64               `json:"pending_appraisals"`
	TodayAttendance   []AttendanceSummary `json:"today_attendance"`
	UpcomingHolidays  []Holiday           `json:"upcoming_holidays"`
}

func GetHrDashboard(ctx context.Context) (*HrDashboard, error) {
	db := config.GetDB().WithContext(ctx)

	var out HrDashboard
	err := db.Model(&User{}).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name <> ?", SuperAdminRoleName).
		Count(&out.TotalEmployees).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&Appraisal{}).
		Where("status = ?", ApprovalStatusPending).
		Count(&out.PendingAppraisals).Error
	if err != nil {
		return nil, err
	}

	today, err := utils.ConvertToDate(time.Now(), "")
	if err != nil {
		return nil, err
	}
	out.TodayAttendance, err = GetAttendanceSummary(ctx, today)
	if err != nil {
		return nil, err
	}

	err = db.Model(&Holiday{}).
		Where("date >= ?", today).
		Order("date ASC").
		Limit(5).
		Find(&out.UpcomingHolidays).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ManagerDashboard is scoped to the manager's direct reports.
type ManagerDashboard struct {
	TeamSize          int64           `json:"team_size"`
	PendingAppraisals int64           `json:"pending_appraisals"`
	TeamPoints        decimal.Decimal `json:"team_points"`
	TopPerformers     []User          `json:"top_performers"`
}

func GetManagerDashboard(ctx context.Context, managerId int) (*ManagerDashboard, error) {
	db := config.GetDB().WithContext(ctx)

	var out ManagerDashboard
	err := db.Model(&User{}).
		Where("reporting_to = ?", managerId).
		Count(&out.TeamSize).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&Appraisal{}).
		Where("status = ?", ApprovalStatusPending).
		Where("employee_id IN (SELECT id FROM users WHERE reporting_to = ?)", managerId).
		Count(&out.PendingAppraisals).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&User{}).
		Select("COALESCE(SUM(total_points), 0)").
		Where("reporting_to = ?", managerId).
		Scan(&out.TeamPoints).Error
	if err != nil {
		return nil, err
	}
	err = db.
		Where("reporting_to = ?", managerId).
		Order("total_points DESC").
		Limit(5).
		Find(&out.TopPerformers).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}
