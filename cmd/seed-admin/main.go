// seed-admin creates or updates the Super Admin role and the first admin user.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//   ADMIN_EMAIL=admin@example.com ADMIN_PASSWORD=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

const defaultAdminEmail = "admin@hr.local"

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	if adminEmail == "" {
		adminEmail = defaultAdminEmail
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if len(adminPassword) < 8 {
		fmt.Fprintln(os.Stderr, "ADMIN_PASSWORD is required (min 8 characters)")
		os.Exit(1)
	}

	// Ensure the Super Admin role exists.
	var role models.Role
	err := db.WithContext(ctx).Where("name = ?", models.SuperAdminRoleName).First(&role).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup role: %v\n", err)
			os.Exit(1)
		}
		role = models.Role{
			Name:        models.SuperAdminRoleName,
			Description: "Full access operator role",
			Permissions: "[]",
			Status:      models.UserStatusActive,
		}
		if err := db.WithContext(ctx).Create(&role).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create role: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created role %q (id=%d)\n", role.Name, role.ID)
	}

	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	var existing models.User
	err = db.WithContext(ctx).Where("email = ?", adminEmail).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			EmployeeCode: "ADMIN-001",
			FirstName:    "System",
			LastName:     "Admin",
			Email:        adminEmail,
			Password:     hashedStr,
			RoleId:       role.ID,
			Status:       models.UserStatusActive,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user: email=%q (role=%s)\n", adminEmail, role.Name)
		return
	}

	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", adminEmail).Updates(map[string]any{
		"password": hashedStr,
		"role_id":  role.ID,
		"status":   models.UserStatusActive,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	models.RevokeAllSessions(adminEmail)
	fmt.Printf("Updated admin user: email=%q (role=%s)\n", adminEmail, role.Name)
}
