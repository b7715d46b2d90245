package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Attendance holds one row per employee per calendar day, enforced by a
// unique index. Writes are upserts so re-marking a day overwrites it.
type Attendance struct {
	ID         int              `gorm:"primary_key" json:"id"`
	EmployeeId int              `gorm:"not null;uniqueIndex:uniq_employee_date,priority:1" json:"employee_id"`
	Employee   *User            `gorm:"foreignKey:EmployeeId" json:"employee,omitempty"`
	Date       time.Time        `gorm:"type:date;not null;uniqueIndex:uniq_employee_date,priority:2" json:"date"`
	Status     AttendanceStatus `gorm:"type:enum('Present','Absent','Leave','HalfDay','Late');not null" json:"status"`
	CheckIn    *time.Time       `json:"check_in"`
	CheckOut   *time.Time       `json:"check_out"`
	Notes      string           `gorm:"size:500" json:"notes"`
	CreatedBy  int              `json:"created_by"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// MarkAttendance records or overwrites the employee's attendance for the day.
func MarkAttendance(ctx context.Context, attendance *Attendance) (*Attendance, error) {
	if err := utils.ValidateResourceId[User](ctx, attendance.EmployeeId); err != nil {
		return nil, err
	}
	date, err := utils.ConvertToDate(attendance.Date, "")
	if err != nil {
		return nil, err
	}
	attendance.Date = date

	err = config.GetDB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "check_in", "check_out", "notes", "updated_at",
			}),
		}).
		Create(attendance).Error
	if err != nil {
		// The upsert clause should absorb duplicates; 1062 here means a race
		// on a concurrent insert, safe to surface as invalid input.
		if isDuplicateKeyErr(err) {
			return nil, utils.ErrorInvalidInput
		}
		return nil, err
	}
	return GetAttendance(ctx, attendance.EmployeeId, attendance.Date)
}

func GetAttendance(ctx context.Context, employeeId int, date time.Time) (*Attendance, error) {
	var attendance Attendance
	err := config.GetDB().WithContext(ctx).
		Preload("Employee").
		Where("employee_id = ? AND date = ?", employeeId, date).
		First(&attendance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &attendance, nil
}

// GetMonthlyAttendance lists one employee's rows for a named month.
func GetMonthlyAttendance(ctx context.Context, employeeId int, monthName string, year int) ([]Attendance, error) {
	start, end, err := utils.MonthRange(monthName, year)
	if err != nil {
		return nil, utils.ErrorInvalidInput
	}
	var rows []Attendance
	err = config.GetDB().WithContext(ctx).
		Where("employee_id = ? AND date BETWEEN ? AND ?", employeeId, start, end).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

// GetDailyAttendance lists every employee's row for one day.
func GetDailyAttendance(ctx context.Context, date time.Time) ([]Attendance, error) {
	var rows []Attendance
	err := config.GetDB().WithContext(ctx).
		Preload("Employee").
		Where("date = ?", date).
		Order("employee_id ASC").
		Find(&rows).Error
	return rows, err
}

func DeleteAttendance(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Attendance](ctx, id); err != nil {
		return err
	}
	return config.GetDB().WithContext(ctx).Delete(&Attendance{}, id).Error
}

// AttendanceSummary is the per-status tally a dashboard card shows.
type AttendanceSummary struct {
	Status AttendanceStatus `json:"status"`
	Count  int64            `json:"count"`
}

func GetAttendanceSummary(ctx context.Context, date time.Time) ([]AttendanceSummary, error) {
	var summary []AttendanceSummary
	err := config.GetDB().WithContext(ctx).Model(&Attendance{}).
		Select("status, COUNT(*) AS count").
		Where("date = ?", date).
		Group("status").
		Scan(&summary).Error
	return summary, err
}
