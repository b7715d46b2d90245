package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

func adminDashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		dashboard, err := models.GetAdminDashboard(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": dashboard})
	}
}

func hrDashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		dashboard, err := models.GetHrDashboard(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": dashboard})
	}
}

// managerDashboardHandler scopes to the caller's own team.
func managerDashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		managerId, ok := utils.GetUserIdFromContext(ctx)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		dashboard, err := models.GetManagerDashboard(ctx, managerId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": dashboard})
	}
}
