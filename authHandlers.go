package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		token, user, err := models.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			// Same message for unknown email and bad password.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		token, okToken := utils.GetTokenFromContext(ctx)
		email, okEmail := utils.GetEmailFromContext(ctx)
		if !okToken || !okEmail {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if err := models.Logout(token, email); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

// requestOtpHandler issues a password-reset OTP and queues the mail through
// the outbox. The response never reveals whether the email exists.
func requestOtpHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

		user, otp, err := models.IssueOtp(ctx, req.Email)
		if err == nil {
			payload, merr := utils.MarshalToJSON(map[string]string{
				"name": user.FullName(),
				"otp":  otp,
			})
			if merr == nil {
				err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
					return models.EnqueueEmail(ctx, tx, user.Email, "Your password reset code", "password-reset-otp", []byte(payload), correlationId)
				})
			}
			if merr != nil || err != nil {
				config.LogError(config.GetLogger(), "auth", "requestOtpHandler", "Failed to queue OTP email", req.Email, err)
			}
		}
		// Unknown emails get the same answer as known ones.
		c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a reset code has been sent"})
	}
}

// verifyOtpHandler trades a valid OTP for a short-lived reset token.
func verifyOtpHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
			Otp   string `json:"otp" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := models.VerifyOtp(c.Request.Context(), req.Email, req.Otp)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired OTP"})
			return
		}
		resetToken, err := utils.JwtGenerateResetToken(user.ID, user.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reset_token": resetToken})
	}
}

func resetPasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ResetToken  string `json:"reset_token" binding:"required"`
			NewPassword string `json:"new_password" binding:"required,min=8"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		parsed, err := utils.JwtValidate(req.ResetToken)
		if err != nil || !parsed.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired reset token"})
			return
		}
		claims, ok := parsed.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired reset token"})
			return
		}

		if err := models.ResetPassword(c.Request.Context(), claims.ID, req.NewPassword); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password has been reset"})
	}
}
