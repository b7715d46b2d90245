package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

// Directory is the ledger's window onto the employee roster and its aggregate
// balance column. Production uses models.EmployeeDirectory (users.total_points);
// tests substitute an in-memory fake.
type Directory interface {
	Exists(ctx context.Context, tx *gorm.DB, employeeId int) (bool, error)
	AggregateBalance(ctx context.Context, tx *gorm.DB, employeeId int) (decimal.Decimal, error)
	SetAggregateBalance(ctx context.Context, tx *gorm.DB, employeeId int, balance decimal.Decimal) error
}

// PointsLedger owns every write to the points table. Each mutation runs in
// one transaction serialized per employee by a MySQL advisory lock taken on
// the transaction's connection, so two instances can never interleave writes
// to the same chain.
type PointsLedger struct {
	DB     *gorm.DB
	Dir    Directory
	Logger *logrus.Logger

	// EditWindow bounds Amend. Zero means unlimited.
	EditWindow time.Duration
}

func NewPointsLedger(db *gorm.DB, logger *logrus.Logger) *PointsLedger {
	return &PointsLedger{
		DB:         db,
		Dir:        models.EmployeeDirectory{},
		Logger:     logger,
		EditWindow: time.Duration(config.PointsEditWindowHours()) * time.Hour,
	}
}

// RebuildReport describes what a Rebuild changed.
type RebuildReport struct {
	EmployeeId      int             `json:"employee_id"`
	Rows            int             `json:"rows"`
	Repaired        int             `json:"repaired"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	Balance         decimal.Decimal `json:"balance"`
}

// Record appends a transaction to the employee's chain and moves the
// aggregate with it.
func (l *PointsLedger) Record(ctx context.Context, employeeId int, delta decimal.Decimal, reason string, createdBy int) (*models.Point, error) {
	if delta.IsZero() || reason == "" {
		return nil, utils.ErrorInvalidInput
	}

	var point models.Point
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireEmployeePostingLock(tx, employeeId); err != nil {
			return utils.ErrorLedgerConflict
		}
		defer ReleaseEmployeePostingLock(tx, employeeId)

		exists, err := l.Dir.Exists(ctx, tx, employeeId)
		if err != nil {
			return err
		}
		if !exists {
			return utils.ErrorRecordNotFound
		}

		seq, err := nextSeq(ctx, tx, employeeId)
		if err != nil {
			return err
		}
		balance, err := l.Dir.AggregateBalance(ctx, tx, employeeId)
		if err != nil {
			return err
		}

		point = models.Point{
			EmployeeId:   employeeId,
			Seq:          seq,
			Delta:        delta,
			Kind:         models.KindForDelta(delta),
			Reason:       reason,
			BalanceAfter: balance.Add(delta),
			CreatedBy:    createdBy,
		}
		if err := tx.Create(&point).Error; err != nil {
			if isDuplicateKeyErr(err) {
				// Unique (employee_id, seq) tripped, which means another
				// writer got past the lock. Surface as conflict, never
				// overwrite.
				return utils.ErrorLedgerConflict
			}
			return err
		}
		return l.Dir.SetAggregateBalance(ctx, tx, employeeId, point.BalanceAfter)
	})
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).AddEvent("ledger.record")
	return &point, nil
}

// Amend rewrites one transaction's delta and reason, then shifts every later
// balance_after by the difference. The employee of a transaction is
// immutable; move money by deleting and re-recording instead.
func (l *PointsLedger) Amend(ctx context.Context, id int, newDelta decimal.Decimal, newReason string) (*models.Point, error) {
	if newDelta.IsZero() {
		return nil, utils.ErrorInvalidInput
	}

	// Locate the owning employee first; the lock key needs it.
	var probe models.Point
	if err := l.DB.WithContext(ctx).First(&probe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	var amended models.Point
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireEmployeePostingLock(tx, probe.EmployeeId); err != nil {
			return utils.ErrorLedgerConflict
		}
		defer ReleaseEmployeePostingLock(tx, probe.EmployeeId)

		// Reload under the lock; the probe read raced.
		var point models.Point
		if err := tx.First(&point, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		if l.EditWindow > 0 && time.Since(point.CreatedAt) > l.EditWindow {
			return utils.ErrorEditWindowClosed
		}

		diff := newDelta.Sub(point.Delta)
		updates := map[string]interface{}{
			"delta":         newDelta,
			"kind":          models.KindForDelta(newDelta),
			"balance_after": point.BalanceAfter.Add(diff),
		}
		if newReason != "" {
			updates["reason"] = newReason
		}
		if err := tx.Model(&models.Point{}).Where("id = ?", point.ID).Updates(updates).Error; err != nil {
			return err
		}

		if !diff.IsZero() {
			err := tx.Model(&models.Point{}).
				Where("employee_id = ? AND seq > ?", point.EmployeeId, point.Seq).
				UpdateColumn("balance_after", gorm.Expr("balance_after + ?", diff)).Error
			if err != nil {
				return err
			}
			balance, err := l.Dir.AggregateBalance(ctx, tx, point.EmployeeId)
			if err != nil {
				return err
			}
			if err := l.Dir.SetAggregateBalance(ctx, tx, point.EmployeeId, balance.Add(diff)); err != nil {
				return err
			}
		}

		return tx.First(&amended, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &amended, nil
}

// Delete removes a transaction and pulls every later balance_after (and the
// aggregate) back by its delta. Not bounded by the edit window.
func (l *PointsLedger) Delete(ctx context.Context, id int) error {
	var probe models.Point
	if err := l.DB.WithContext(ctx).First(&probe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		}
		return err
	}

	return l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireEmployeePostingLock(tx, probe.EmployeeId); err != nil {
			return utils.ErrorLedgerConflict
		}
		defer ReleaseEmployeePostingLock(tx, probe.EmployeeId)

		var point models.Point
		if err := tx.First(&point, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		if err := tx.Delete(&models.Point{}, point.ID).Error; err != nil {
			return err
		}
		err := tx.Model(&models.Point{}).
			Where("employee_id = ? AND seq > ?", point.EmployeeId, point.Seq).
			UpdateColumn("balance_after", gorm.Expr("balance_after - ?", point.Delta)).Error
		if err != nil {
			return err
		}

		balance, err := l.Dir.AggregateBalance(ctx, tx, point.EmployeeId)
		if err != nil {
			return err
		}
		return l.Dir.SetAggregateBalance(ctx, tx, point.EmployeeId, balance.Sub(point.Delta))
	})
}

// Rebuild recomputes the chain from baseBalance in seq order, persists only
// rows whose balance_after drifted, and re-anchors the aggregate. It is the
// repair path for any historical inconsistency.
func (l *PointsLedger) Rebuild(ctx context.Context, employeeId int, baseBalance decimal.Decimal) (*RebuildReport, error) {
	report := RebuildReport{EmployeeId: employeeId}

	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireEmployeePostingLock(tx, employeeId); err != nil {
			return utils.ErrorLedgerConflict
		}
		defer ReleaseEmployeePostingLock(tx, employeeId)

		exists, err := l.Dir.Exists(ctx, tx, employeeId)
		if err != nil {
			return err
		}
		if !exists {
			return utils.ErrorRecordNotFound
		}

		previous, err := l.Dir.AggregateBalance(ctx, tx, employeeId)
		if err != nil {
			return err
		}
		report.PreviousBalance = previous

		var rows []models.Point
		err = tx.Where("employee_id = ?", employeeId).
			Order("seq ASC").
			Find(&rows).Error
		if err != nil {
			return err
		}
		report.Rows = len(rows)

		repair := config.LedgerAutoRepair()
		running := baseBalance
		for i := range rows {
			running = running.Add(rows[i].Delta)
			if !rows[i].BalanceAfter.Equal(running) {
				report.Repaired++
				if !repair {
					continue
				}
				err := tx.Model(&models.Point{}).
					Where("id = ?", rows[i].ID).
					UpdateColumn("balance_after", running).Error
				if err != nil {
					return err
				}
			}
		}
		report.Balance = running

		if !repair {
			return nil
		}
		return l.Dir.SetAggregateBalance(ctx, tx, employeeId, running)
	})
	if err != nil {
		return nil, err
	}

	if report.Repaired > 0 || !report.PreviousBalance.Equal(report.Balance) {
		trace.SpanFromContext(ctx).AddEvent("ledger.rebuild.drift")
		l.Logger.WithFields(logrus.Fields{
			"field":            "PointsLedger",
			"employee_id":      employeeId,
			"rows":             report.Rows,
			"repaired":         report.Repaired,
			"previous_balance": report.PreviousBalance.String(),
			"balance":          report.Balance.String(),
		}).Warn("ledger drift repaired: " + utils.ErrorLedgerDrift.Error())
	}
	return &report, nil
}

// History reads one employee's transactions with filtering, sorting and
// paging. Read-only, no lock.
func (l *PointsLedger) History(ctx context.Context, employeeId int, filter models.PointFilter) ([]models.Point, *models.Pagination, error) {
	db := l.DB.WithContext(ctx).Model(&models.Point{}).
		Where("employee_id = ?", employeeId).
		Scopes(filter.Scope())

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, nil, err
	}
	pagination := models.NewPagination(filter.Page, filter.Limit, total)

	var rows []models.Point
	err := db.Order(filter.OrderClause()).
		Scopes(models.Paginate(pagination)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	return rows, pagination, nil
}

// RecentWindow lists the last N days of an employee's chain, newest first.
func (l *PointsLedger) RecentWindow(ctx context.Context, employeeId int, days int) ([]models.Point, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)
	var rows []models.Point
	err := l.DB.WithContext(ctx).
		Where("employee_id = ? AND created_at >= ?", employeeId, since).
		Order("seq DESC").
		Find(&rows).Error
	return rows, err
}

func nextSeq(ctx context.Context, tx *gorm.DB, employeeId int) (int, error) {
	var seq int
	err := tx.WithContext(ctx).Model(&models.Point{}).
		Where("employee_id = ?", employeeId).
		Select("COALESCE(MAX(seq), 0) + 1").
		Scan(&seq).Error
	return seq, err
}
