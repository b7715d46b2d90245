package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

type Holiday struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	Date        time.Time `gorm:"type:date;not null;index" json:"date"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetHolidays lists holidays sorted by date, optionally filtered by a name
// search and a year.
func GetHolidays(ctx context.Context, search string, year *int) ([]Holiday, error) {
	db := config.GetDB().WithContext(ctx).Model(&Holiday{})
	if search != "" {
		db = db.Where("name LIKE ?", "%"+search+"%")
	}
	if year != nil {
		db = db.Where("YEAR(date) = ?", *year)
	}
	var holidays []Holiday
	err := db.Order("date ASC").Find(&holidays).Error
	return holidays, err
}

func GetHolidayById(ctx context.Context, id int) (*Holiday, error) {
	return utils.FetchSingleModel[Holiday](ctx, id)
}

func CreateHoliday(ctx context.Context, holiday *Holiday) error {
	if holiday.Name == "" || holiday.Date.IsZero() {
		return utils.ErrorInvalidInput
	}
	date, err := utils.ConvertToDate(holiday.Date, "")
	if err != nil {
		return err
	}
	holiday.Date = date
	return config.GetDB().WithContext(ctx).Create(holiday).Error
}

func UpdateHoliday(ctx context.Context, id int, updates map[string]interface{}) (*Holiday, error) {
	holiday, err := GetHolidayById(ctx, id)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Model(holiday).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return GetHolidayById(ctx, id)
}

func DeleteHoliday(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Holiday](ctx, id); err != nil {
		return err
	}
	return config.GetDB().WithContext(ctx).Delete(&Holiday{}, id).Error
}
