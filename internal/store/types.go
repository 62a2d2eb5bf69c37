package store

// TelemetryUpdate is one normalized telemetry message from the ingest
// entry point. Occupancy has already been normalized to one boolean per
// slot id by the occupancy package.
type TelemetryUpdate struct {
	DeviceID     string
	EntranceCm   int
	ExitApproved bool
	Occupancy    []bool
	MsgCount     int
}
