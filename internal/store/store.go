package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"parking-lease-backend/internal/model"
)

// ErrEmailExists is returned when a signup reuses a registered email.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user row matches the query.
var ErrUserNotFound = errors.New("user not found")

// ErrDeviceNotFound is returned when no device row matches the query.
var ErrDeviceNotFound = errors.New("device not found")

// Store defines persistence for accounts and devices. Lease rows are owned
// by the lease engine.
type Store interface {
	DB() *gorm.DB

	CreateUser(ctx context.Context, fullName, email, passwordHash string) (*model.User, error)
	GetUser(ctx context.Context, id uint64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SetUserApproval(ctx context.Context, id uint64, status model.ApprovalStatus) (*model.User, error)

	UpsertTelemetry(ctx context.Context, update TelemetryUpdate, now time.Time) (*model.Device, error)
	GetDevice(ctx context.Context, deviceID string) (*model.Device, error)
	ListDevices(ctx context.Context) ([]model.Device, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

// CreateUser registers an account. The first account ever created is
// promoted to admin and approved inside the same transaction as the count
// check, so the bootstrap cannot recur once any user row exists.
func (s *gormStore) CreateUser(ctx context.Context, fullName, email, passwordHash string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.User
		err := tx.Where("email = ?", email).First(&existing).Error
		if err == nil {
			return ErrEmailExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var count int64
		if err := tx.Model(&model.User{}).Count(&count).Error; err != nil {
			return err
		}

		user = model.User{
			FullName:       fullName,
			Email:          email,
			PasswordHash:   passwordHash,
			Role:           model.RoleUser,
			ApprovalStatus: model.ApprovalPending,
		}
		if count == 0 {
			user.Role = model.RoleAdmin
			user.ApprovalStatus = model.ApprovalApproved
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SetUserApproval updates an account's approval status.
func (s *gormStore) SetUserApproval(ctx context.Context, id uint64, status model.ApprovalStatus) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		user.ApprovalStatus = status
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertTelemetry applies one telemetry message: the device row is created
// on the first message for an unseen device id, then updated in place.
func (s *gormStore) UpsertTelemetry(ctx context.Context, update TelemetryUpdate, now time.Time) (*model.Device, error) {
	var device model.Device
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("device_id = ?", update.DeviceID).First(&device).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			device = model.Device{DeviceID: update.DeviceID}
		} else if err != nil {
			return err
		}

		device.EntranceCm = update.EntranceCm
		device.ExitApproved = update.ExitApproved
		device.Occupancy = update.Occupancy
		device.LastMsgCount = update.MsgCount
		device.LastSeen = now

		if err := tx.Save(&device).Error; err != nil {
			return fmt.Errorf("failed to upsert device %s: %w", update.DeviceID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (s *gormStore) GetDevice(ctx context.Context, deviceID string) (*model.Device, error) {
	var device model.Device
	if err := s.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return &device, nil
}

// ListDevices returns every known device, most recently seen first.
func (s *gormStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Order("last_seen DESC").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}
