package model

import "time"

// Role classifies an account's privilege level.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ApprovalStatus tracks whether an admin has cleared an account for booking.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// User represents an account. The first account ever created is promoted to
// admin and approved at signup; everyone after that starts pending.
type User struct {
	ID             uint64         `gorm:"primaryKey"`
	FullName       string         `gorm:"size:120;not null"`
	Email          string         `gorm:"uniqueIndex;size:200;not null"`
	PasswordHash   string         `gorm:"size:255;not null"`
	Role           Role           `gorm:"size:16;not null"`
	ApprovalStatus ApprovalStatus `gorm:"size:16;not null"`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time      `gorm:"not null"`
}

// IsAdmin reports whether the account has admin privileges.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// CanLease reports whether the account may request or manage leases.
func (u *User) CanLease() bool {
	return u.Role == RoleAdmin || u.ApprovalStatus == ApprovalApproved
}
