package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-lease-backend/internal/model"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Device{}))
	return NewGormStore(db)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// The first account bootstraps the admin.
	first, err := s.CreateUser(ctx, "Alice Admin", "alice@example.com", "hash1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, first.Role)
	assert.Equal(t, model.ApprovalApproved, first.ApprovalStatus)
	assert.True(t, first.CanLease())

	// Everyone after that starts as a pending regular user.
	second, err := s.CreateUser(ctx, "Bob", "bob@example.com", "hash2")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, second.Role)
	assert.Equal(t, model.ApprovalPending, second.ApprovalStatus)
	assert.False(t, second.CanLease())

	_, err = s.CreateUser(ctx, "Bob Again", "bob@example.com", "hash3")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateUser(ctx, "Alice", "alice@example.com", "hash")
	require.NoError(t, err)

	byID, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = s.GetUser(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetUserApproval(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateUser(ctx, "Alice", "alice@example.com", "hash")
	require.NoError(t, err)
	pending, err := s.CreateUser(ctx, "Bob", "bob@example.com", "hash")
	require.NoError(t, err)

	approved, err := s.SetUserApproval(ctx, pending.ID, model.ApprovalApproved)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, approved.ApprovalStatus)
	assert.True(t, approved.CanLease())

	rejected, err := s.SetUserApproval(ctx, pending.ID, model.ApprovalRejected)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalRejected, rejected.ApprovalStatus)

	_, err = s.SetUserApproval(ctx, 999, model.ApprovalApproved)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpsertTelemetry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	firstSeen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// First message for an unseen device id creates the row.
	created, err := s.UpsertTelemetry(ctx, TelemetryUpdate{
		DeviceID:   "dev-1",
		EntranceCm: 120,
		Occupancy:  []bool{true, false, false, false},
		MsgCount:   1,
	}, firstSeen)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, []bool{true, false, false, false}, created.Occupancy)
	assert.Equal(t, firstSeen, created.LastSeen.UTC())

	// Subsequent messages update in place.
	updated, err := s.UpsertTelemetry(ctx, TelemetryUpdate{
		DeviceID:     "dev-1",
		EntranceCm:   80,
		ExitApproved: true,
		Occupancy:    []bool{false, true, false, false},
		MsgCount:     2,
	}, firstSeen.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 80, updated.EntranceCm)
	assert.True(t, updated.ExitApproved)
	assert.Equal(t, []bool{false, true, false, false}, updated.Occupancy)
	assert.Equal(t, 2, updated.LastMsgCount)

	devices, err := s.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
}

func TestListDevicesOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.UpsertTelemetry(ctx, TelemetryUpdate{DeviceID: "dev-old"}, base)
	require.NoError(t, err)
	_, err = s.UpsertTelemetry(ctx, TelemetryUpdate{DeviceID: "dev-new"}, base.Add(time.Hour))
	require.NoError(t, err)

	devices, err := s.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "dev-new", devices[0].DeviceID)
	assert.Equal(t, "dev-old", devices[1].DeviceID)
}

func TestGetDevice(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetDevice(ctx, "dev-missing")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}
