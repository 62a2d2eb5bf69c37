package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Each subscription belongs to the account that registered it; lease
// decisions are pushed to every subscription the lease owner holds.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	UserID    uint64    `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
