package lease

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSlot is returned when the slot id is outside the fixed range.
	ErrInvalidSlot = errors.New("slot id is out of range")
	// ErrSlotOccupied is returned when the sensor reports the slot occupied.
	ErrSlotOccupied = errors.New("slot is occupied")
	// ErrSlotAlreadyLeased is returned when another active lease holds the slot.
	ErrSlotAlreadyLeased = errors.New("slot already has an active lease")
	// ErrUserHasActiveLease is returned when the user already holds a
	// non-terminal lease on the device.
	ErrUserHasActiveLease = errors.New("user already holds an active lease on this device")
	// ErrNotFound is returned when no lease exists for the given id.
	ErrNotFound = errors.New("lease not found")
	// ErrDeviceNotFound is returned when no device row exists for the id.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrForbidden is returned when the actor is neither the lease owner nor
	// an admin.
	ErrForbidden = errors.New("actor may not modify this lease")
	// ErrInvalidState is returned when the lease is not in a state that
	// allows the requested transition.
	ErrInvalidState = errors.New("lease state does not allow this transition")
	// ErrAutoRejected is returned by Approve when the slot became occupied
	// between request and approval; the lease has been transitioned to
	// rejected. Distinct from a hard failure: the state change committed.
	ErrAutoRejected = errors.New("lease auto-rejected: slot is occupied")
)

// ActuationError reports a device command failure after the lease state
// change already committed. The lease is not rolled back; callers retry the
// device notification out-of-band, not the whole operation.
type ActuationError struct {
	DeviceID string
	Command  string
	Err      error
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("actuation %q for device %s failed: %v", e.Command, e.DeviceID, e.Err)
}

func (e *ActuationError) Unwrap() error { return e.Err }
