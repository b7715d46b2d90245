package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

func stampCreatedBy(c *gin.Context, createdBy *int) {
	if id, ok := utils.GetUserIdFromContext(c.Request.Context()); ok {
		*createdBy = id
	}
}

// Roles

func listRolesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := models.GetRoles(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": roles})
	}
}

func getRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		role, err := models.GetRoleById(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": role, "permissions": role.PermissionList()})
	}
}

func createRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var role models.Role
		if err := c.ShouldBindJSON(&role); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		stampCreatedBy(c, &role.CreatedBy)
		if err := models.CreateRole(c.Request.Context(), &role); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": role})
	}
}

func updateRoleHandler() gin.HandlerFunc {
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
		role, err := models.UpdateRole(c.Request.Context(), id, updates)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": role})
	}
}

func deleteRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteRole(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

// Departments

func departmentTreeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tree, err := models.GetDepartmentTree(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": tree})
	}
}

func getDepartmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		department, err := models.GetDepartmentById(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": department})
	}
}

func createDepartmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var department models.Department
		if err := c.ShouldBindJSON(&department); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		stampCreatedBy(c, &department.CreatedBy)
		if err := models.CreateDepartment(c.Request.Context(), &department); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": department})
	}
}

func updateDepartmentHandler() gin.HandlerFunc {
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
		department, err := models.UpdateDepartment(c.Request.Context(), id, updates)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": department})
	}
}

func deleteDepartmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteDepartment(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

// Designations

func listDesignationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		designations, err := models.GetDesignations(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": designations})
	}
}

func createDesignationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var designation models.Designation
		if err := c.ShouldBindJSON(&designation); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		stampCreatedBy(c, &designation.CreatedBy)
		if err := models.CreateDesignation(c.Request.Context(), &designation); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": designation})
	}
}

func updateDesignationHandler() gin.HandlerFunc {
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
		designation, err := models.UpdateDesignation(c.Request.Context(), id, updates)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": designation})
	}
}

func deleteDesignationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteDesignation(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

// Holidays

func listHolidaysHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		holidays, err := models.GetHolidays(c.Request.Context(), c.Query("search"), queryInt(c, "year"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": holidays})
	}
}

func createHolidayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var holiday models.Holiday
		if err := c.ShouldBindJSON(&holiday); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		stampCreatedBy(c, &holiday.CreatedBy)
		if err := models.CreateHoliday(c.Request.Context(), &holiday); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": holiday})
	}
}

func updateHolidayHandler() gin.HandlerFunc {
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
		holiday, err := models.UpdateHoliday(c.Request.Context(), id, updates)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": holiday})
	}
}

func deleteHolidayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteHoliday(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}
