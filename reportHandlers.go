package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/hr_backend/models/reports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func pointsReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeId, ok := paramId(c, "employeeId")
		if !ok {
			return
		}

		f, err := reports.BuildPointsWorkbook(c.Request.Context(), employeeId)
		if err != nil {
			respondError(c, err)
			return
		}

		filename := fmt.Sprintf("points-%d.xlsx", employeeId)
		c.Header("Content-Type", xlsxContentType)
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write file"})
		}
	}
}

func attendanceReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeId, ok := paramId(c, "employeeId")
		if !ok {
			return
		}
		monthName := c.Query("month")
		if monthName == "" {
			monthName = time.Now().Month().String()
		}
		year := queryIntDefault(c, "year", time.Now().Year())

		f, err := reports.BuildAttendanceWorkbook(c.Request.Context(), employeeId, monthName, year)
		if err != nil {
			respondError(c, err)
			return
		}

		filename := fmt.Sprintf("attendance-%d-%s-%d.xlsx", employeeId, monthName, year)
		c.Header("Content-Type", xlsxContentType)
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write file"})
		}
	}
}
