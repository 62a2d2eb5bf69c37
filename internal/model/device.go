package model

import "time"

// Device represents one sensor/actuator unit. Rows are created on the first
// telemetry message for an unseen device id and never deleted. Occupancy is
// stored normalized: one boolean per slot id, index 0 = slot 1.
type Device struct {
	ID           uint64    `gorm:"primaryKey"`
	DeviceID     string    `gorm:"uniqueIndex;size:128;not null"`
	EntranceCm   int       `gorm:"not null;default:0"`
	ExitApproved bool      `gorm:"not null;default:false"`
	Occupancy    []bool    `gorm:"serializer:json"`
	LastMsgCount int       `gorm:"not null;default:0"`
	LastSeen     time.Time `gorm:"index"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
