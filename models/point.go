package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Point is one ledger transaction: a signed points delta plus the employee's
// running balance immediately after it.
//
// Chain order is (employee_id, seq), assigned under the posting lock.
// created_at is display/filter material only; it cannot disambiguate writes
// that land in the same millisecond.
type Point struct {
	ID           int             `gorm:"primary_key" json:"id"`
	EmployeeId   int             `gorm:"not null;index;uniqueIndex:uniq_employee_seq,priority:1" json:"employee_id"`
	Seq          int             `gorm:"not null;uniqueIndex:uniq_employee_seq,priority:2" json:"seq"`
	Delta        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"delta"`
	Kind         PointKind       `gorm:"type:enum('B','D');not null;index" json:"kind"`
	Reason       string          `gorm:"size:500;not null" json:"reason"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"balance_after"`
	CreatedBy    int             `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time       `gorm:"type:datetime(3);autoCreateTime:milli;index" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"type:datetime(3);autoUpdateTime:milli" json:"updated_at"`
}

// KindForDelta derives the stored kind column. It is never authoritative:
// rewritten from delta on every write.
func KindForDelta(delta decimal.Decimal) PointKind {
	if delta.IsPositive() {
		return PointKindBonus
	}
	return PointKindDeduction
}

type PointSortKey string

const (
	PointSortByDate      PointSortKey = "date"
	PointSortByMagnitude PointSortKey = "magnitude"
	PointSortByBalance   PointSortKey = "balance"
)

// PointFilter narrows and orders a History read.
type PointFilter struct {
	Kind      *PointKind       `json:"kind"`
	MinDelta  *decimal.Decimal `json:"min_delta"`
	MaxDelta  *decimal.Decimal `json:"max_delta"`
	FromDate  *time.Time       `json:"from_date"`
	ToDate    *time.Time       `json:"to_date"`
	Reason    string           `json:"reason"`
	CreatedBy *int             `json:"created_by"`
	SortBy    PointSortKey     `json:"sort_by"`
	SortDesc  bool             `json:"sort_desc"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
}

// Scope translates the filter into gorm clauses (sorting and paging are
// applied by the caller).
func (f PointFilter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Kind != nil {
			db = db.Where("kind = ?", *f.Kind)
		}
		if f.MinDelta != nil {
			db = db.Where("delta >= ?", *f.MinDelta)
		}
		if f.MaxDelta != nil {
			db = db.Where("delta <= ?", *f.MaxDelta)
		}
		if f.FromDate != nil {
			db = db.Where("created_at >= ?", *f.FromDate)
		}
		if f.ToDate != nil {
			db = db.Where("created_at <= ?", *f.ToDate)
		}
		if f.Reason != "" {
			db = db.Where("reason LIKE ?", "%"+f.Reason+"%")
		}
		if f.CreatedBy != nil {
			db = db.Where("created_by = ?", *f.CreatedBy)
		}
		return db
	}
}

func (f PointFilter) OrderClause() string {
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	switch f.SortBy {
	case PointSortByMagnitude:
		return "ABS(delta) " + dir + ", seq ASC"
	case PointSortByBalance:
		return "balance_after " + dir + ", seq ASC"
	default:
		return "seq " + dir
	}
}

// EmployeeDirectory is the production employee-directory collaborator:
// the ledger's only window onto the users table. Nothing else writes
// total_points.
type EmployeeDirectory struct{}

func (EmployeeDirectory) Exists(ctx context.Context, tx *gorm.DB, employeeId int) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&User{}).
		Where("id = ? AND status <> ?", employeeId, UserStatusInactive).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (EmployeeDirectory) AggregateBalance(ctx context.Context, tx *gorm.DB, employeeId int) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.WithContext(ctx).Model(&User{}).
		Where("id = ?", employeeId).
		Select("total_points").
		Scan(&balance).Error
	return balance, err
}

func (EmployeeDirectory) SetAggregateBalance(ctx context.Context, tx *gorm.DB, employeeId int, balance decimal.Decimal) error {
	return tx.WithContext(ctx).Model(&User{}).
		Where("id = ?", employeeId).
		UpdateColumn("total_points", balance).Error
}
