package lease

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-lease-backend/internal/actuator"
	"parking-lease-backend/internal/model"
	"parking-lease-backend/internal/occupancy"
)

// Notifier dispatches a lease-decision notification job. Implemented by the
// notification worker pool; may be nil when web push is disabled.
type Notifier interface {
	Dispatch(leaseID uint64)
}

// Service is the slot reservation engine: it arbitrates new requests,
// advances lease state over time and on explicit actions, and triggers
// device actuation when an admin approves.
type Service struct {
	db        *gorm.DB
	commander actuator.Commander
	notifier  Notifier
	slotCount int
	ttl       time.Duration
	now       func() time.Time
}

// NewService creates the reservation engine. notifier may be nil.
func NewService(db *gorm.DB, commander actuator.Commander, notifier Notifier, slotCount int, ttl time.Duration) *Service {
	return &Service{
		db:        db,
		commander: commander,
		notifier:  notifier,
		slotCount: slotCount,
		ttl:       ttl,
		now:       time.Now,
	}
}

// lockDevice loads the device row under a row lock so concurrent operations
// on the same device serialize on the check-then-write sequence. SQLite has
// no FOR UPDATE; its single-writer transaction covers that path.
func (s *Service) lockDevice(tx *gorm.DB, deviceID string) (*model.Device, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var device model.Device
	if err := q.Where("device_id = ?", deviceID).First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return &device, nil
}

// reconcileExpired reclassifies overdue pending/approved leases for one
// device to expired, stamping finished_at. This is the single place the
// time-based transition lives; every operation that reads or writes lease
// state runs it first, so the lease set is always consistent with the clock
// without a background scheduler.
func (s *Service) reconcileExpired(tx *gorm.DB, deviceID string, now time.Time) error {
	q := tx.Model(&model.Lease{}).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at < ?", model.ActiveLeaseStatuses, now)
	if deviceID != "" {
		q = q.Where("device_id = ?", deviceID)
	}
	return q.Updates(map[string]any{
		"status":      model.LeaseExpired,
		"finished_at": now,
	}).Error
}

// slotViews merges the device's sensor occupancy with its approved leases.
// Callers must have run reconcileExpired in the same transaction.
func (s *Service) slotViews(tx *gorm.DB, device *model.Device) ([]occupancy.SlotView, error) {
	var approved []model.Lease
	if err := tx.Where("device_id = ? AND status = ?", device.DeviceID, model.LeaseApproved).
		Find(&approved).Error; err != nil {
		return nil, err
	}
	leased := make(map[int]bool, len(approved))
	for _, l := range approved {
		leased[l.SlotID] = true
	}
	return occupancy.BuildView(device.Occupancy, leased, s.slotCount), nil
}

// SlotViews returns the current per-slot display state for a device.
func (s *Service) SlotViews(ctx context.Context, deviceID string) ([]occupancy.SlotView, error) {
	now := s.now().UTC()
	var views []occupancy.SlotView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		device, err := s.lockDevice(tx, deviceID)
		if err != nil {
			return err
		}
		if err := s.reconcileExpired(tx, deviceID, now); err != nil {
			return err
		}
		views, err = s.slotViews(tx, device)
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// Request evaluates a new reservation attempt. Preconditions are checked in
// order, first failure wins: valid slot id, slot not occupied, slot not
// already held by an active lease, user without an active lease on the
// device. The check-then-insert runs in one transaction under the device
// row lock, so of two concurrent requests for the same slot exactly one
// wins and the other observes the conflict as if evaluated strictly after.
func (s *Service) Request(ctx context.Context, userID uint64, deviceID string, slotID int) (*model.Lease, error) {
	if slotID < 1 || slotID > s.slotCount {
		return nil, ErrInvalidSlot
	}

	now := s.now().UTC()
	var created model.Lease
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		device, err := s.lockDevice(tx, deviceID)
		if err != nil {
			return err
		}
		if err := s.reconcileExpired(tx, deviceID, now); err != nil {
			return err
		}

		if slotID-1 < len(device.Occupancy) && device.Occupancy[slotID-1] {
			return ErrSlotOccupied
		}

		var active []model.Lease
		if err := tx.Where("device_id = ? AND status IN ?", deviceID, model.ActiveLeaseStatuses).
			Find(&active).Error; err != nil {
			return err
		}
		for _, l := range active {
			if l.SlotID == slotID {
				return ErrSlotAlreadyLeased
			}
		}
		for _, l := range active {
			if l.UserID == userID {
				return ErrUserHasActiveLease
			}
		}

		expires := now.Add(s.ttl)
		created = model.Lease{
			UserID:    userID,
			DeviceID:  deviceID,
			SlotID:    slotID,
			Status:    model.LeasePending,
			ExpiresAt: &expires,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Approve finalizes a pending lease. Occupancy is re-derived at approval
// time, not request time: the sensor may have changed in between, and this
// second check is the designed mitigation for that race. A now-occupied
// slot auto-rejects the lease (ErrAutoRejected, state committed). On
// success the arrival window is renewed to now+TTL and two actuation
// intents go out: mark the slot reserved, then open the gate. Actuation
// failure after the commit surfaces as *ActuationError.
func (s *Service) Approve(ctx context.Context, leaseID uint64) (*model.Lease, error) {
	now := s.now().UTC()
	var decided model.Lease
	var autoRejected bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, device, err := s.loadPending(tx, leaseID, now)
		if err != nil {
			return err
		}

		if l.SlotID-1 < len(device.Occupancy) && device.Occupancy[l.SlotID-1] {
			l.Status = model.LeaseRejected
			l.FinishedAt = &now
			autoRejected = true
			decided = *l
			return tx.Save(l).Error
		}

		expires := now.Add(s.ttl)
		l.Status = model.LeaseApproved
		l.ApprovedAt = &now
		l.ExpiresAt = &expires
		decided = *l
		return tx.Save(l).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifyDecision(decided.ID)
	if autoRejected {
		return &decided, ErrAutoRejected
	}

	if err := s.send(ctx, decided.DeviceID, "slot-reserved", actuator.SlotBooked(decided.SlotID, true)); err != nil {
		return &decided, err
	}
	if err := s.send(ctx, decided.DeviceID, "open-gate", actuator.OpenGate()); err != nil {
		return &decided, err
	}
	return &decided, nil
}

// Reject is the unconditional admin counterpart of Approve: no occupancy
// check, no actuation.
func (s *Service) Reject(ctx context.Context, leaseID uint64) (*model.Lease, error) {
	now := s.now().UTC()
	var rejected model.Lease
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, _, err := s.loadPending(tx, leaseID, now)
		if err != nil {
			return err
		}
		l.Status = model.LeaseRejected
		l.FinishedAt = &now
		rejected = *l
		return tx.Save(l).Error
	})
	if err != nil {
		return nil, err
	}
	s.notifyDecision(rejected.ID)
	return &rejected, nil
}

// Cancel transitions a non-terminal lease to cancelled. Only the owning
// user or an admin may cancel. If the lease was approved, the device is
// told best-effort that the slot is no longer reserved; a relay failure
// does not roll back the cancellation.
func (s *Service) Cancel(ctx context.Context, actorID uint64, admin bool, leaseID uint64) error {
	now := s.now().UTC()
	var cancelled model.Lease
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l model.Lease
		if err := tx.First(&l, leaseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if l.UserID != actorID && !admin {
			return ErrForbidden
		}
		if err := s.reconcileExpired(tx, l.DeviceID, now); err != nil {
			return err
		}
		// Reload: the sweep may have just expired this lease.
		if err := tx.First(&l, leaseID).Error; err != nil {
			return err
		}
		if l.Status.Terminal() {
			return ErrInvalidState
		}
		wasApproved := l.Status == model.LeaseApproved
		l.Status = model.LeaseCancelled
		l.FinishedAt = &now
		if err := tx.Save(&l).Error; err != nil {
			return err
		}
		if wasApproved {
			cancelled = l
		}
		return nil
	})
	if err != nil {
		return err
	}
	if cancelled.ID != 0 {
		return s.send(ctx, cancelled.DeviceID, "slot-released", actuator.SlotBooked(cancelled.SlotID, false))
	}
	return nil
}

// Complete marks an approved lease completed once the arrival is confirmed.
// Reserved terminal transition; there is no arrival sensor yet, so only an
// admin drives it.
func (s *Service) Complete(ctx context.Context, leaseID uint64) (*model.Lease, error) {
	now := s.now().UTC()
	var completed model.Lease
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l model.Lease
		if err := tx.First(&l, leaseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := s.reconcileExpired(tx, l.DeviceID, now); err != nil {
			return err
		}
		if err := tx.First(&l, leaseID).Error; err != nil {
			return err
		}
		if l.Status != model.LeaseApproved {
			return ErrInvalidState
		}
		l.Status = model.LeaseCompleted
		l.FinishedAt = &now
		completed = l
		return tx.Save(&l).Error
	})
	if err != nil {
		return nil, err
	}
	return &completed, nil
}

// Get returns one lease by id, post-sweep.
func (s *Service) Get(ctx context.Context, leaseID uint64) (*model.Lease, error) {
	var l model.Lease
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&l, leaseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := s.reconcileExpired(tx, l.DeviceID, s.now().UTC()); err != nil {
			return err
		}
		return tx.First(&l, leaseID).Error
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListForUser returns the user's leases across all devices, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]model.Lease, error) {
	return s.list(ctx, "user_id = ?", userID)
}

// ListForDevice returns every lease on one device, newest first. Admin view.
func (s *Service) ListForDevice(ctx context.Context, deviceID string) ([]model.Lease, error) {
	return s.list(ctx, "device_id = ?", deviceID)
}

// ListAll returns every lease in the system, newest first. Admin view.
func (s *Service) ListAll(ctx context.Context) ([]model.Lease, error) {
	return s.list(ctx, "")
}

func (s *Service) list(ctx context.Context, cond string, args ...any) ([]model.Lease, error) {
	now := s.now().UTC()
	var leases []model.Lease
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Listings can span devices, so sweep globally.
		if err := s.reconcileExpired(tx, "", now); err != nil {
			return err
		}
		q := tx.Order("created_at DESC")
		if cond != "" {
			q = q.Where(cond, args...)
		}
		return q.Find(&leases).Error
	})
	if err != nil {
		return nil, err
	}
	return leases, nil
}

// loadPending locks the lease's device, sweeps, and returns the lease if it
// is still pending. Shared by Approve and Reject.
func (s *Service) loadPending(tx *gorm.DB, leaseID uint64, now time.Time) (*model.Lease, *model.Device, error) {
	var l model.Lease
	if err := tx.First(&l, leaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	device, err := s.lockDevice(tx, l.DeviceID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.reconcileExpired(tx, l.DeviceID, now); err != nil {
		return nil, nil, err
	}
	if err := tx.First(&l, leaseID).Error; err != nil {
		return nil, nil, err
	}
	if l.Status != model.LeasePending {
		return nil, nil, ErrInvalidState
	}
	return &l, device, nil
}

func (s *Service) send(ctx context.Context, deviceID, command string, payload map[string]any) error {
	if err := s.commander.SendCommand(ctx, deviceID, payload); err != nil {
		log.Printf("actuation %q for device %s failed: %v", command, deviceID, err)
		return &ActuationError{DeviceID: deviceID, Command: command, Err: err}
	}
	return nil
}

func (s *Service) notifyDecision(leaseID uint64) {
	if s.notifier != nil {
		s.notifier.Dispatch(leaseID)
	}
}
