package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

// Templates

func listAppraisalTemplatesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		templates, err := models.GetAppraisalTemplates(c.Request.Context(), c.Query("search"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": templates})
	}
}

func getAppraisalTemplateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		template, err := models.GetAppraisalTemplateById(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": template})
	}
}

func createAppraisalTemplateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var template models.AppraisalTemplate
		if err := c.ShouldBindJSON(&template); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		stampCreatedBy(c, &template.CreatedBy)
		if err := models.CreateAppraisalTemplate(c.Request.Context(), &template); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": template})
	}
}

func updateAppraisalTemplateHandler() gin.HandlerFunc {
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
		template, err := models.UpdateAppraisalTemplate(c.Request.Context(), id, updates)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": template})
	}
}

func deleteAppraisalTemplateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteAppraisalTemplate(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

// matchedUsersHandler previews which employees a template would apply to.
func matchedUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		users, err := models.GetMatchedUsers(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": users})
	}
}

// Appraisals

func listAppraisalsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.AppraisalFilter{
			EmployeeId: queryInt(c, "employee_id"),
			CreatedBy:  queryInt(c, "created_by"),
			ManagerId:  queryInt(c, "manager_id"),
			TemplateId: queryInt(c, "template_id"),
			Search:     c.Query("search"),
			Page:       queryIntDefault(c, "page", 1),
			Limit:      queryIntDefault(c, "limit", 10),
		}
		if raw := c.Query("status"); raw != "" {
			status := models.ApprovalStatus(raw)
			filter.Status = &status
		}

		appraisals, pagination, err := models.GetAppraisals(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": appraisals, "pagination": pagination})
	}
}

func getAppraisalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		appraisal, err := models.GetAppraisalById(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": appraisal})
	}
}

// createAppraisalHandler hands off to the workflow so the ledger deduction
// happens alongside the row.
func createAppraisalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var appraisal models.Appraisal
		if err := c.ShouldBindJSON(&appraisal); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		stampCreatedBy(c, &appraisal.CreatedBy)
		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

		created, err := appraisalWorkflow.Create(ctx, &appraisal, correlationId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": created})
	}
}

func bulkCreateAppraisalsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			TemplateId  int    `json:"template_id" binding:"required"`
			Period      string `json:"period"`
			EmployeeIds []int  `json:"employee_ids" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
		prototype := models.Appraisal{
			TemplateId: req.TemplateId,
			Period:     req.Period,
		}
		stampCreatedBy(c, &prototype.CreatedBy)

		created, failures := appraisalWorkflow.BulkCreate(ctx, &prototype, req.EmployeeIds, correlationId)
		status := http.StatusCreated
		if len(failures) > 0 {
			status = http.StatusMultiStatus
		}
		c.JSON(status, gin.H{"data": created, "failures": failures})
	}
}

func updateAppraisalHandler() gin.HandlerFunc {
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
		appraisal, err := models.UpdateAppraisal(c.Request.Context(), id, updates)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": appraisal})
	}
}

func deleteAppraisalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteAppraisal(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

// appraisalDecisionHandler records a verdict. The manager and admin sides are
// tracked separately; the admin side is only writable by Super Admin.
func appraisalDecisionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var req struct {
			Decision models.ApprovalStatus `json:"decision" binding:"required"`
			Feedback string                `json:"feedback"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Decision != models.ApprovalStatusApproved && req.Decision != models.ApprovalStatusRejected {
			c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be Approved or Rejected"})
			return
		}

		ctx := c.Request.Context()
		byAdmin, _ := utils.GetIsAdminFromContext(ctx)
		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

		appraisal, err := appraisalWorkflow.Decide(ctx, id, byAdmin, req.Decision, req.Feedback, correlationId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": appraisal})
	}
}
