package reports

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/hr_backend/models"
)

// BuildAttendanceWorkbook renders one employee's attendance for a month.
func BuildAttendanceWorkbook(ctx context.Context, employeeId int, monthName string, year int) (*excelize.File, error) {
	rows, err := models.GetMonthlyAttendance(ctx, employeeId, monthName, year)
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
	f.SetCellValue(sheetName, "A1", "Date")
	f.SetCellValue(sheetName, "B1", "Status")
	f.SetCellValue(sheetName, "C1", "CheckIn")
	f.SetCellValue(sheetName, "D1", "CheckOut")
	f.SetCellValue(sheetName, "E1", "Notes")

	// Add data
	for i, a := range rows {
		f.SetCellValue(sheetName, "A"+fmt.Sprint(i+2), a.Date.Format("2006-01-02"))
		f.SetCellValue(sheetName, "B"+fmt.Sprint(i+2), string(a.Status))
		if a.CheckIn != nil {
			f.SetCellValue(sheetName, "C"+fmt.Sprint(i+2), a.CheckIn.Format("15:04"))
		}
		if a.CheckOut != nil {
			f.SetCellValue(sheetName, "D"+fmt.Sprint(i+2), a.CheckOut.Format("15:04"))
		}
		f.SetCellValue(sheetName, "E"+fmt.Sprint(i+2), a.Notes)
	}

	return f, nil
}
