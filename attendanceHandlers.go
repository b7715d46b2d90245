package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

func markAttendanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var attendance models.Attendance
		if err := c.ShouldBindJSON(&attendance); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		switch attendance.Status {
		case models.AttendanceStatusPresent, models.AttendanceStatusAbsent,
			models.AttendanceStatusLeave, models.AttendanceStatusHalfDay,
			models.AttendanceStatusLate:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		ctx := c.Request.Context()
		if createdBy, ok := utils.GetUserIdFromContext(ctx); ok {
			attendance.CreatedBy = createdBy
		}

		saved, err := models.MarkAttendance(ctx, &attendance)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": saved})
	}
}

func dailyAttendanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		date := time.Now()
		if raw := c.Query("date"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
				return
			}
			date = parsed
		}

		rows, err := models.GetDailyAttendance(c.Request.Context(), date)
		if err != nil {
			respondError(c, err)
			return
		}
		summary, err := models.GetAttendanceSummary(c.Request.Context(), date)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows, "summary": summary})
	}
}

func monthlyAttendanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeId, ok := paramId(c, "employeeId")
		if !ok {
			return
		}
		monthName := c.Query("month")
		year := queryIntDefault(c, "year", time.Now().Year())
		if monthName == "" {
			monthName = time.Now().Month().String()
		}

		rows, err := models.GetMonthlyAttendance(c.Request.Context(), employeeId, monthName, year)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}

func deleteAttendanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteAttendance(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}
