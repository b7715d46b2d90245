package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

func paramId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return &v
	}
	return nil
}

func queryIntDefault(c *gin.Context, name string, fallback int) int {
	if v := queryInt(c, name); v != nil {
		return *v
	}
	return fallback
}

func listUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.UserFilter{
			Search:       c.Query("search"),
			RoleId:       queryInt(c, "role_id"),
			DepartmentId: queryInt(c, "department_id"),
			Page:         queryIntDefault(c, "page", 1),
			Limit:        queryIntDefault(c, "limit", 10),
		}
		if raw := c.Query("status"); raw != "" {
			status := models.UserStatus(raw)
			filter.Status = &status
		}

		users, pagination, err := models.GetUsers(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": users, "pagination": pagination})
	}
}

// createUserHandler inserts the employee and queues a credentials email with
// the generated password. The plaintext is never returned in the response.
func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := c.ShouldBindJSON(&user); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		if createdBy, ok := utils.GetUserIdFromContext(ctx); ok {
			user.CreatedBy = createdBy
		}

		plainPassword, err := models.CreateUser(ctx, &user)
		if err != nil {
			respondError(c, err)
			return
		}

		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
		payload, merr := utils.MarshalToJSON(map[string]string{
			"name":     user.FullName(),
			"email":    user.Email,
			"password": plainPassword,
		})
		if merr == nil {
			merr = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				return models.EnqueueEmail(ctx, tx, user.Email, "Your account credentials", "welcome-credentials", []byte(payload), correlationId)
			})
		}
		if merr != nil {
			config.LogError(config.GetLogger(), "user", "createUserHandler", "Failed to queue credentials email", user.Email, merr)
		}

		c.JSON(http.StatusCreated, gin.H{"data": user})
	}
}

func getUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		user, err := models.GetUserById(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": user})
	}
}

func updateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var updates map[string]interface{}
		if err := c.ShouldBindJSON(&updates); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		var previousPhoto string
		if newPhoto, ok := updates["photo_url"].(string); ok {
			if existing, err := models.GetUserById(ctx, id); err == nil && existing.PhotoUrl != "" && existing.PhotoUrl != newPhoto {
				previousPhoto = existing.PhotoUrl
			}
		}

		user, err := models.UpdateUser(ctx, id, updates)
		if err != nil {
			respondError(c, err)
			return
		}

		// Replaced photos are orphaned in the bucket; clean up best-effort.
		if previousPhoto != "" {
			if key := utils.ExtractObjectKeyFromURL(previousPhoto); key != "" {
				if err := utils.DeleteObjectFromGCS(ctx, key); err != nil {
					config.LogError(config.GetLogger(), "user", "updateUserHandler", "Failed to delete replaced photo", key, err)
				}
			}
		}
		c.JSON(http.StatusOK, gin.H{"data": user})
	}
}

// deactivateUserHandler soft-deletes by flipping status. History and the
// points chain stay intact.
func deactivateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		user, err := models.SetUserStatus(c.Request.Context(), id, models.UserStatusInactive)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": user})
	}
}

func setUserStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var req struct {
			Status models.UserStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		switch req.Status {
		case models.UserStatusActive, models.UserStatusInactive, models.UserStatusSuspended:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		user, err := models.SetUserStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": user})
	}
}

func setReportingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var req struct {
			ReportingTo *int `json:"reporting_to"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, err := models.SetReportingTo(c.Request.Context(), id, req.ReportingTo)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": user})
	}
}

func teamMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		members, err := models.GetTeamMembers(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": members})
	}
}

func listManagersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		managers, err := models.GetManagers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": managers})
	}
}

// changePasswordHandler lets users change their own password only.
func changePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		callerId, okCaller := utils.GetUserIdFromContext(ctx)
		if !okCaller || callerId != id {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		var req struct {
			CurrentPassword string `json:"current_password" binding:"required"`
			NewPassword     string `json:"new_password" binding:"required,min=8"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := models.ChangePassword(ctx, id, req.CurrentPassword, req.NewPassword); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password changed"})
	}
}
