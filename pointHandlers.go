package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

// recordPointHandler posts one signed delta onto the employee's chain.
func recordPointHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			EmployeeId int             `json:"employee_id" binding:"required"`
			Delta      decimal.Decimal `json:"delta" binding:"required"`
			Reason     string          `json:"reason" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "points.record")
		defer span.End()

		createdBy, _ := utils.GetUserIdFromContext(ctx)

		// Best-effort app-level lock on top of the DB posting lock. Losing it
		// is fine; the DB lock is authoritative.
		if lock, err := utils.EmployeeLock(ctx, req.EmployeeId, "points", "recordPointHandler"); err == nil && lock != nil {
			defer func() { _ = lock.Release(ctx) }()
		}

		point, err := pointsLedger.Record(ctx, req.EmployeeId, req.Delta, req.Reason, createdBy)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": point})
	}
}

func amendPointHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var req struct {
			Delta  decimal.Decimal `json:"delta" binding:"required"`
			Reason string          `json:"reason" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "points.amend")
		defer span.End()

		point, err := pointsLedger.Amend(ctx, id, req.Delta, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": point})
	}
}

func deletePointHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "points.delete")
		defer span.End()

		if err := pointsLedger.Delete(ctx, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

func pointHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeId, ok := paramId(c, "employeeId")
		if !ok {
			return
		}
		filter := models.PointFilter{
			Reason:    c.Query("reason"),
			CreatedBy: queryInt(c, "created_by"),
			SortBy:    models.PointSortKey(c.Query("sort_by")),
			SortDesc:  c.Query("sort_desc") == "true",
			Page:      queryIntDefault(c, "page", 1),
			Limit:     queryIntDefault(c, "limit", 10),
		}
		if raw := c.Query("kind"); raw != "" {
			kind := models.PointKind(raw)
			filter.Kind = &kind
		}
		if raw := c.Query("min_delta"); raw != "" {
			v, err := utils.ParseDecimal(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_delta"})
				return
			}
			filter.MinDelta = &v
		}
		if raw := c.Query("max_delta"); raw != "" {
			v, err := utils.ParseDecimal(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max_delta"})
				return
			}
			filter.MaxDelta = &v
		}
		if raw := c.Query("from_date"); raw != "" {
			if t, err := time.Parse("2006-01-02", raw); err == nil {
				filter.FromDate = &t
			}
		}
		if raw := c.Query("to_date"); raw != "" {
			if t, err := time.Parse("2006-01-02", raw); err == nil {
				end := t.Add(24*time.Hour - time.Millisecond)
				filter.ToDate = &end
			}
		}

		points, pagination, err := pointsLedger.History(c.Request.Context(), employeeId, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": points, "pagination": pagination})
	}
}

func recentPointsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeId, ok := paramId(c, "employeeId")
		if !ok {
			return
		}
		days := queryIntDefault(c, "days", 7)

		points, err := pointsLedger.RecentWindow(c.Request.Context(), employeeId, days)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": points})
	}
}

// pointsRebuildHandler recomputes one employee's chain from a base balance.
// Admin-only ops endpoint; the CLI wraps the same workflow for batch runs.
func pointsRebuildHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			EmployeeId  int             `json:"employee_id" binding:"required"`
			BaseBalance decimal.Decimal `json:"base_balance"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		report, err := pointsLedger.Rebuild(c.Request.Context(), req.EmployeeId, req.BaseBalance)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": report})
	}
}

// outboxReplayHandler re-arms dead or failed outbox emails for dispatch.
func outboxReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Ids []int `json:"ids" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		replayed, err := models.ReplayDeadEmails(c.Request.Context(), config.GetDB(), req.Ids)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"replayed": replayed})
	}
}
