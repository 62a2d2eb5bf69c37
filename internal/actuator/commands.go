package actuator

import "fmt"

// Command payloads understood by the device firmware.

// OpenGate asks the controller to open the entrance gate.
func OpenGate() map[string]any {
	return map[string]any{"openGate": true}
}

// ExitApproved toggles the exit-approval flag on the controller.
func ExitApproved(approved bool) map[string]any {
	return map[string]any{"exitApproved": approved}
}

// SlotBooked marks one slot's reserved indicator on or off.
func SlotBooked(slotID int, booked bool) map[string]any {
	return map[string]any{fmt.Sprintf("slot%dBooked", slotID): booked}
}
