package workflow

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

const appraisalRefundHandler = "appraisal-refund"

// AppraisalWorkflow orchestrates appraisal writes with their ledger and mail
// side effects. The appraisal row and its outbox mail commit together; the
// ledger posting runs in its own serialized transaction right after, with
// idempotency keys guarding redelivery and Rebuild as the repair path.
type AppraisalWorkflow struct {
	DB     *gorm.DB
	Ledger *PointsLedger
	Logger *logrus.Logger
}

func NewAppraisalWorkflow(db *gorm.DB, ledger *PointsLedger, logger *logrus.Logger) *AppraisalWorkflow {
	return &AppraisalWorkflow{DB: db, Ledger: ledger, Logger: logger}
}

// Create inserts the appraisal and posts the template's points as a ledger
// deduction against the employee.
func (w *AppraisalWorkflow) Create(ctx context.Context, appraisal *models.Appraisal, correlationId string) (*models.Appraisal, error) {
	template, err := models.GetAppraisalTemplateById(ctx, appraisal.TemplateId)
	if err != nil {
		return nil, err
	}
	employee, err := models.GetUserById(ctx, appraisal.EmployeeId)
	if err != nil {
		return nil, err
	}

	err = w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return models.CreateAppraisal(ctx, tx, appraisal)
	})
	if err != nil {
		return nil, err
	}

	reason := "Appraisal: " + template.Title
	_, err = w.Ledger.Record(ctx, appraisal.EmployeeId, template.Points.Neg(), reason, appraisal.CreatedBy)
	if err != nil {
		w.Logger.WithFields(logrus.Fields{
			"field":        "AppraisalWorkflow",
			"appraisal_id": appraisal.ID,
			"employee_id":  appraisal.EmployeeId,
		}).Error("appraisal created but ledger deduction failed: " + err.Error())
		return nil, err
	}

	w.Logger.WithFields(logrus.Fields{
		"field":        "AppraisalWorkflow",
		"appraisal_id": appraisal.ID,
		"employee_id":  employee.ID,
		"template_id":  template.ID,
	}).Info("appraisal created with ledger deduction")

	return models.GetAppraisalById(ctx, appraisal.ID)
}

// BulkCreate runs Create per employee and reports per-employee failures
// without aborting the batch.
func (w *AppraisalWorkflow) BulkCreate(ctx context.Context, prototype *models.Appraisal, employeeIds []int, correlationId string) ([]models.Appraisal, map[int]string) {
	var created []models.Appraisal
	failures := map[int]string{}
	for _, employeeId := range utils.UniqueSlice(employeeIds) {
		appraisal := *prototype
		appraisal.ID = 0
		appraisal.EmployeeId = employeeId
		out, err := w.Create(ctx, &appraisal, correlationId)
		if err != nil {
			failures[employeeId] = err.Error()
			continue
		}
		created = append(created, *out)
	}
	return created, failures
}

// Decide applies a manager or admin verdict. A rejection refunds the
// template's points as a compensating bonus and mails the employee via the
// outbox. The refund is deduped with an idempotency key scoped to the
// appraisal, so neither a retried request nor a second rejecting verdict can
// refund twice, while a refund that failed mid-flight stays retryable.
func (w *AppraisalWorkflow) Decide(ctx context.Context, id int, byAdmin bool, decision models.ApprovalStatus, feedback string, correlationId string) (*models.Appraisal, error) {
	refundKey := fmt.Sprintf("%d", id)

	var appraisal *models.Appraisal
	var refundPending bool

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		appraisal, err = models.SetDecision(ctx, tx, id, byAdmin, decision, feedback)
		if err != nil {
			return err
		}
		if appraisal.Status != models.ApprovalStatusRejected {
			return nil
		}

		skip, err := BeginIdempotency(tx, appraisalRefundHandler, refundKey)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}
		refundPending = true

		payload, err := utils.MarshalToJSON(map[string]interface{}{
			"appraisal_id": appraisal.ID,
			"employee_id":  appraisal.EmployeeId,
			"status":       appraisal.Status,
			"feedback":     feedback,
		})
		if err != nil {
			return err
		}
		employee, err := models.GetUserById(ctx, appraisal.EmployeeId)
		if err != nil {
			return err
		}
		return models.EnqueueEmail(ctx, tx, employee.Email, "Appraisal decision", "appraisal-rejected", []byte(payload), correlationId)
	})
	if err != nil {
		return nil, err
	}
	if !refundPending {
		return appraisal, nil
	}

	// Compensating bonus: the points deducted at creation flow back.
	template, err := models.GetAppraisalTemplateById(ctx, appraisal.TemplateId)
	if err != nil {
		return nil, err
	}
	reason := "Appraisal rejected: " + template.Title
	_, err = w.Ledger.Record(ctx, appraisal.EmployeeId, template.Points, reason, appraisal.CreatedBy)
	if err != nil {
		_ = MarkIdempotencyFailed(w.DB.WithContext(ctx), appraisalRefundHandler, refundKey, err)
		w.Logger.WithFields(logrus.Fields{
			"field":        "AppraisalWorkflow",
			"appraisal_id": appraisal.ID,
			"employee_id":  appraisal.EmployeeId,
		}).Error("compensating bonus failed, refund key marked FAILED for retry: " + err.Error())
		return nil, err
	}
	if err := MarkIdempotencySucceeded(w.DB.WithContext(ctx), appraisalRefundHandler, refundKey); err != nil {
		return nil, err
	}
	return appraisal, nil
}
