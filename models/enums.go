package models

type UserStatus string

const (
	UserStatusActive    UserStatus = "Active"
	UserStatusInactive  UserStatus = "Inactive"
	UserStatusSuspended UserStatus = "Suspended"
)

type PointKind string

const (
	PointKindBonus     PointKind = "B"
	PointKindDeduction PointKind = "D"
)

type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
	AttendanceStatusLeave   AttendanceStatus = "Leave"
	AttendanceStatusHalfDay AttendanceStatus = "HalfDay"
	AttendanceStatusLate    AttendanceStatus = "Late"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "Pending"
	ApprovalStatusApproved ApprovalStatus = "Approved"
	ApprovalStatusRejected ApprovalStatus = "Rejected"
)

// SuperAdminRoleName is the reserved role created by cmd/seed-admin.
// Users holding it bypass permission checks and are excluded from listings.
const SuperAdminRoleName = "Super Admin"
