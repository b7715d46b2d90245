package reports

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
)

// BuildPointsWorkbook renders one employee's full points chain as an xlsx
// file. Rows come out in seq order so the balance column reads as a running
// total.
func BuildPointsWorkbook(ctx context.Context, employeeId int) (*excelize.File, error) {
	user, err := models.GetUserById(ctx, employeeId)
	if err != nil {
		return nil, err
	}

	var points []models.Point
	err = config.GetDB().WithContext(ctx).
		Where("employee_id = ?", employeeId).
		Order("seq ASC").
		Find(&points).Error
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Sheet1"
	_, err = f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}

	// Add headers
	f.SetCellValue(sheetName, "A1", "Seq")
	f.SetCellValue(sheetName, "B1", "Date")
	f.SetCellValue(sheetName, "C1", "Kind")
	f.SetCellValue(sheetName, "D1", "Delta")
	f.SetCellValue(sheetName, "E1", "Reason")
	f.SetCellValue(sheetName, "F1", "BalanceAfter")

	// Add data
	for i, p := range points {
		f.SetCellValue(sheetName, "A"+fmt.Sprint(i+2), p.Seq)
		f.SetCellValue(sheetName, "B"+fmt.Sprint(i+2), p.CreatedAt.Format("2006-01-02 15:04"))
		f.SetCellValue(sheetName, "C"+fmt.Sprint(i+2), string(p.Kind))
		f.SetCellValue(sheetName, "D"+fmt.Sprint(i+2), p.Delta.String())
		f.SetCellValue(sheetName, "E"+fmt.Sprint(i+2), p.Reason)
		f.SetCellValue(sheetName, "F"+fmt.Sprint(i+2), p.BalanceAfter.String())
	}

	// Summary row: the aggregate must match the last balance.
	summaryRow := len(points) + 3
	f.SetCellValue(sheetName, "A"+fmt.Sprint(summaryRow), "Employee")
	f.SetCellValue(sheetName, "B"+fmt.Sprint(summaryRow), user.FullName())
	f.SetCellValue(sheetName, "E"+fmt.Sprint(summaryRow), "TotalPoints")
	f.SetCellValue(sheetName, "F"+fmt.Sprint(summaryRow), user.TotalPoints.String())

	return f, nil
}
