package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireEmployeePostingLock serializes ledger writes per employee across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same *gorm.DB that will do the posting transaction.
func AcquireEmployeePostingLock(tx *gorm.DB, employeeId int) error {
	lockName := fmt.Sprintf("points:%d", employeeId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for employee_id=%d", employeeId)
	}
	return nil
}

func ReleaseEmployeePostingLock(tx *gorm.DB, employeeId int) {
	lockName := fmt.Sprintf("points:%d", employeeId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
