package models

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User is an employee record. TotalPoints is the ledger aggregate: it is only
// written by the points workflow and must equal the last balance_after of the
// employee's chain.
type User struct {
	ID            int             `gorm:"primary_key" json:"id"`
	EmployeeCode  string          `gorm:"size:50;not null;unique" json:"employee_code"`
	FirstName     string          `gorm:"size:100;not null" json:"first_name"`
	LastName      string          `gorm:"size:100" json:"last_name"`
	Email         string          `gorm:"size:255;not null;unique" json:"email"`
	Password      string          `gorm:"size:255;not null" json:"-"`
	Phone         string          `gorm:"size:50" json:"phone"`
	RoleId        int             `gorm:"not null" json:"role_id"`
	Role          *Role           `gorm:"foreignKey:RoleId" json:"role,omitempty"`
	DepartmentId  *int            `json:"department_id"`
	Department    *Department     `gorm:"foreignKey:DepartmentId" json:"department,omitempty"`
	DesignationId *int            `json:"designation_id"`
	Designation   *Designation    `gorm:"foreignKey:DesignationId" json:"designation,omitempty"`
	ReportingTo   *int            `gorm:"index" json:"reporting_to"`
	DateOfJoining *time.Time      `gorm:"type:date" json:"date_of_joining"`
	Status        UserStatus      `gorm:"type:enum('Active','Inactive','Suspended');default:'Active'" json:"status"`
	PhotoUrl      string          `gorm:"size:500" json:"photo_url"`
	TotalPoints   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_points"`
	Otp           *string         `gorm:"size:10" json:"-"`
	OtpExpiresAt  *time.Time      `json:"-"`
	CreatedBy     int             `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsSuperAdmin() bool {
	return u.Role != nil && u.Role.Name == SuperAdminRoleName
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

func tokenLifespan() time.Duration {
	hours, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// Login verifies credentials and mints a redis session token. Tokens are
// tracked per user in a set so a password reset can revoke every session.
func Login(ctx context.Context, email, password string) (string, *User, error) {
	logger := config.GetLogger()
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, utils.ErrorRecordNotFound
		}
		return "", nil, err
	}
	if user.Status != UserStatusActive {
		return "", nil, errors.New("account is not active")
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return "", nil, errors.New("invalid email or password")
	}

	token := uuid.New().String()
	if err := config.SetRedisValue("Token:"+token, email, tokenLifespan()); err != nil {
		return "", nil, err
	}
	if err := config.AddRedisSet("Tokens:"+email, token); err != nil {
		config.LogError(logger, "user", "Login", "Failed to track session token", email, err)
	}
	cacheUser(user)
	return token, user, nil
}

// Logout drops the presented session token only. Other sessions stay live.
func Logout(token, email string) error {
	if err := config.RemoveRedisKey("Token:" + token); err != nil {
		return err
	}
	return config.RemoveRedisSetMember("Tokens:"+email, token)
}

// RevokeAllSessions kills every tracked session for the user. Called after a
// password reset so stolen tokens die with the old password.
func RevokeAllSessions(email string) {
	logger := config.GetLogger()
	tokens, err := config.GetRedisSetMembers("Tokens:" + email)
	if err != nil {
		config.LogError(logger, "user", "RevokeAllSessions", "Failed to list session tokens", email, err)
		return
	}
	for _, token := range tokens {
		_ = config.RemoveRedisKey("Token:" + token)
	}
	_ = config.RemoveRedisKey("Tokens:"+email, "User:"+email)
}

func cacheUser(user *User) {
	if err := config.SetRedisObject("User:"+user.Email, user, utils.GetCacheLifespan()); err != nil {
		config.LogError(config.GetLogger(), "user", "cacheUser", "Failed to cache user", user.Email, err)
	}
}

// GetSessionUser resolves the session email to a user, redis first.
func GetSessionUser(ctx context.Context, email string) (*User, error) {
	var cached User
	if found, err := config.GetRedisObject("User:"+email, &cached); err == nil && found && cached.ID != 0 {
		return &cached, nil
	}
	user, err := GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	cacheUser(user)
	return user, nil
}

func GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := config.GetDB().WithContext(ctx).
		Preload("Role").Preload("Department").Preload("Designation").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserById(ctx context.Context, id int) (*User, error) {
	var user User
	err := config.GetDB().WithContext(ctx).
		Preload("Role").Preload("Department").Preload("Designation").
		First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UserFilter narrows the employee listing.
type UserFilter struct {
	Search       string      `json:"search"`
	RoleId       *int        `json:"role_id"`
	DepartmentId *int        `json:"department_id"`
	Status       *UserStatus `json:"status"`
	Page         int         `json:"page"`
	Limit        int         `json:"limit"`
}

// GetUsers lists employees with filters and paging. Super Admin accounts are
// excluded; they are operators, not staff.
func GetUsers(ctx context.Context, filter UserFilter) ([]User, *Pagination, error) {
	db := config.GetDB().WithContext(ctx).Model(&User{}).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name <> ?", SuperAdminRoleName)

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where(
			"users.first_name LIKE ? OR users.last_name LIKE ? OR users.email LIKE ? OR users.employee_code LIKE ?",
			like, like, like, like,
		)
	}
	if filter.RoleId != nil {
		db = db.Where("users.role_id = ?", *filter.RoleId)
	}
	if filter.DepartmentId != nil {
		db = db.Where("users.department_id = ?", *filter.DepartmentId)
	}
	if filter.Status != nil {
		db = db.Where("users.status = ?", *filter.Status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, nil, err
	}
	pagination := NewPagination(filter.Page, filter.Limit, total)

	var users []User
	err := db.Preload("Role").Preload("Department").Preload("Designation").
		Order("users.id DESC").
		Scopes(Paginate(pagination)).
		Find(&users).Error
	if err != nil {
		return nil, nil, err
	}
	return users, pagination, nil
}

// CreateUser inserts an employee with a generated password and returns the
// plaintext so the caller can mail it out.
func CreateUser(ctx context.Context, user *User) (string, error) {
	if !utils.IsValidEmail(user.Email) {
		return "", utils.ErrorInvalidInput
	}
	if user.Phone != "" {
		if err := utils.ValidatePhoneNumber(user.Phone, utils.CountryCode); err != nil {
			return "", utils.ErrorInvalidInput
		}
	}

	plainPassword, err := utils.RandomPassword(10)
	if err != nil {
		return "", err
	}
	hashed, err := utils.HashPassword(plainPassword)
	if err != nil {
		return "", err
	}
	user.Password = string(hashed)
	user.TotalPoints = decimal.Zero
	if user.Status == "" {
		user.Status = UserStatusActive
	}

	if err := config.GetDB().WithContext(ctx).Create(user).Error; err != nil {
		return "", err
	}
	return plainPassword, nil
}

// UpdateUser applies profile edits. Password, total_points and OTP fields are
// owned by other flows and never pass through here.
func UpdateUser(ctx context.Context, id int, updates map[string]interface{}) (*User, error) {
	for _, forbidden := range []string{"password", "total_points", "otp", "otp_expires_at"} {
		delete(updates, forbidden)
	}
	if email, ok := updates["email"].(string); ok {
		email = strings.ToLower(strings.TrimSpace(email))
		if !utils.IsValidEmail(email) {
			return nil, utils.ErrorInvalidInput
		}
		updates["email"] = email
	}
	if phone, ok := updates["phone"].(string); ok && phone != "" {
		if err := utils.ValidatePhoneNumber(phone, utils.CountryCode); err != nil {
			return nil, utils.ErrorInvalidInput
		}
	}

	user, err := GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	previousEmail := user.Email

	err = config.GetDB().WithContext(ctx).Model(user).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	_ = config.RemoveRedisKey("User:" + previousEmail)
	return GetUserById(ctx, id)
}

// SetUserStatus flips the lifecycle state. Deactivating revokes sessions.
func SetUserStatus(ctx context.Context, id int, status UserStatus) (*User, error) {
	user, err := GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Model(user).
		UpdateColumn("status", status).Error
	if err != nil {
		return nil, err
	}
	if status != UserStatusActive {
		RevokeAllSessions(user.Email)
	}
	user.Status = status
	return user, nil
}

// ChangePassword verifies the current password before setting the new one.
func ChangePassword(ctx context.Context, id int, currentPassword, newPassword string) error {
	user, err := GetUserById(ctx, id)
	if err != nil {
		return err
	}
	if err := utils.ComparePassword(user.Password, currentPassword); err != nil {
		return errors.New("current password is incorrect")
	}
	return setPassword(ctx, user, newPassword)
}

// ResetPassword sets a new password without knowing the old one. Callers must
// have verified a reset token first.
func ResetPassword(ctx context.Context, id int, newPassword string) error {
	user, err := GetUserById(ctx, id)
	if err != nil {
		return err
	}
	return setPassword(ctx, user, newPassword)
}

func setPassword(ctx context.Context, user *User, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	err = config.GetDB().WithContext(ctx).Model(user).
		UpdateColumn("password", string(hashed)).Error
	if err != nil {
		return err
	}
	RevokeAllSessions(user.Email)
	return nil
}

func otpLifespan() time.Duration {
	minutes, err := strconv.Atoi(os.Getenv("OTP_MINUTES"))
	if err != nil || minutes <= 0 {
		minutes = 10
	}
	return time.Duration(minutes) * time.Minute
}

// IssueOtp stores a fresh OTP on the user row and returns it for mailing.
func IssueOtp(ctx context.Context, email string) (*User, string, error) {
	user, err := GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", utils.ErrorRecordNotFound
		}
		return nil, "", err
	}

	otp, err := utils.RandomOTP()
	if err != nil {
		return nil, "", err
	}
	expiresAt := time.Now().Add(otpLifespan())
	err = config.GetDB().WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"otp":            otp,
		"otp_expires_at": expiresAt,
	}).Error
	if err != nil {
		return nil, "", err
	}
	return user, otp, nil
}

// VerifyOtp checks the OTP and clears it on success. One shot per issue.
func VerifyOtp(ctx context.Context, email, otp string) (*User, error) {
	user, err := GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if user.Otp == nil || user.OtpExpiresAt == nil {
		return nil, errors.New("no OTP requested")
	}
	if time.Now().After(*user.OtpExpiresAt) {
		return nil, errors.New("OTP has expired")
	}
	if *user.Otp != otp {
		return nil, errors.New("invalid OTP")
	}

	err = config.GetDB().WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"otp":            nil,
		"otp_expires_at": nil,
	}).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetManagers lists users someone can report to: anyone with direct reports
// plus department leads.
func GetManagers(ctx context.Context) ([]User, error) {
	var managers []User
	err := config.GetDB().WithContext(ctx).
		Preload("Role").Preload("Department").Preload("Designation").
		Where("status = ?", UserStatusActive).
		Where(`id IN (SELECT DISTINCT reporting_to FROM users WHERE reporting_to IS NOT NULL)
			OR id IN (SELECT lead_id FROM departments WHERE lead_id IS NOT NULL)`).
		Order("first_name ASC").
		Find(&managers).Error
	return managers, err
}

// GetTeamMembers lists the direct reports of a manager.
func GetTeamMembers(ctx context.Context, managerId int) ([]User, error) {
	var members []User
	err := config.GetDB().WithContext(ctx).
		Preload("Role").Preload("Department").Preload("Designation").
		Where("reporting_to = ?", managerId).
		Order("first_name ASC").
		Find(&members).Error
	return members, err
}

// SetReportingTo assigns or clears a manager. Self-reporting is rejected.
func SetReportingTo(ctx context.Context, id int, managerId *int) (*User, error) {
	if managerId != nil {
		if *managerId == id {
			return nil, utils.ErrorInvalidInput
		}
		if _, err := GetUserById(ctx, *managerId); err != nil {
			return nil, err
		}
	}
	user, err := GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Model(user).
		UpdateColumn("reporting_to", managerId).Error
	if err != nil {
		return nil, err
	}
	user.ReportingTo = managerId
	return user, nil
}
