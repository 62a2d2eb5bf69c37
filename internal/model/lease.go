package model

import "time"

// LeaseStatus is the finite state of a reservation.
type LeaseStatus string

const (
	LeasePending   LeaseStatus = "pending"
	LeaseApproved  LeaseStatus = "approved"
	LeaseRejected  LeaseStatus = "rejected"
	LeaseCancelled LeaseStatus = "cancelled"
	LeaseExpired   LeaseStatus = "expired"
	LeaseCompleted LeaseStatus = "completed"
)

// Terminal reports whether the status admits no further transitions.
func (s LeaseStatus) Terminal() bool {
	switch s {
	case LeaseRejected, LeaseCancelled, LeaseExpired, LeaseCompleted:
		return true
	}
	return false
}

// ActiveLeaseStatuses are the non-terminal statuses that hold a slot against
// new requests.
var ActiveLeaseStatuses = []LeaseStatus{LeasePending, LeaseApproved}

// Lease binds one user to one slot on one device for a bounded time window.
// Leases are never deleted; terminal rows remain as an audit trail.
// ExpiresAt is set at creation and renewed on approval (a fresh arrival
// window); FinishedAt is stamped once on entry into a terminal status.
type Lease struct {
	ID         uint64      `gorm:"primaryKey"`
	UserID     uint64      `gorm:"index;not null"`
	DeviceID   string      `gorm:"size:128;index;not null"`
	SlotID     int         `gorm:"not null"`
	Status     LeaseStatus `gorm:"size:16;index;not null"`
	CreatedAt  time.Time   `gorm:"not null"`
	UpdatedAt  time.Time   `gorm:"not null"`
	ExpiresAt  *time.Time
	ApprovedAt *time.Time
	FinishedAt *time.Time

	// Associations
	User User `gorm:"constraint:OnDelete:CASCADE"`
}
