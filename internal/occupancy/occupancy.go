package occupancy

import "encoding/json"

// SlotState is the displayed state of one parking slot.
type SlotState string

const (
	StateFree     SlotState = "free"
	StateLeased   SlotState = "leased"
	StateOccupied SlotState = "occupied"
)

// SlotReport is the explicit per-slot telemetry form.
type SlotReport struct {
	ID       int  `json:"id"`
	Occupied bool `json:"occupied"`
}

// legacyCount is the aggregate form older firmware sends instead of a
// per-slot array.
type legacyCount struct {
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
}

// Normalize decodes either telemetry shape into exactly slotCount booleans,
// one per slot id 1..slotCount. Out-of-range ids are dropped, missing ids
// default to unoccupied, and the legacy aggregate form marks the first
// `occupied` ids in ascending order. Malformed input degrades to all-free:
// a sensor fault must never block the reservation system.
func Normalize(raw json.RawMessage, slotCount int) []bool {
	occ := make([]bool, slotCount)
	if len(raw) == 0 {
		return occ
	}

	var reports []SlotReport
	if err := json.Unmarshal(raw, &reports); err == nil {
		for _, r := range reports {
			if r.ID >= 1 && r.ID <= slotCount {
				occ[r.ID-1] = r.Occupied
			}
		}
		return occ
	}

	var legacy legacyCount
	if err := json.Unmarshal(raw, &legacy); err == nil {
		n := legacy.Occupied
		if n > slotCount {
			n = slotCount
		}
		for i := 0; i < n; i++ {
			occ[i] = true
		}
	}
	return occ
}

// SlotView is the read-time merge of sensor occupancy and approved leases
// for one slot.
type SlotView struct {
	ID       int       `json:"id"`
	Occupied bool      `json:"occupied"`
	Leased   bool      `json:"leased"`
	State    SlotState `json:"state"`
}

// BuildView produces one record per slot id 1..slotCount. A physically
// occupied slot is never shown as merely reserved: occupied wins over
// leased. Missing occupancy entries are treated as unoccupied.
func BuildView(occ []bool, leased map[int]bool, slotCount int) []SlotView {
	views := make([]SlotView, slotCount)
	for i := range views {
		id := i + 1
		v := SlotView{ID: id, Leased: leased[id]}
		if i < len(occ) {
			v.Occupied = occ[i]
		}
		switch {
		case v.Occupied:
			v.State = StateOccupied
		case v.Leased:
			v.State = StateLeased
		default:
			v.State = StateFree
		}
		views[i] = v
	}
	return views
}
