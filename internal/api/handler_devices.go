package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-lease-backend/internal/lease"
	"parking-lease-backend/internal/model"
)

// deviceResponse is the flattened structure for the device listing.
type deviceResponse struct {
	DeviceID     string    `json:"deviceId"`
	EntranceCm   int       `json:"entranceCm"`
	ExitApproved bool      `json:"exitApproved"`
	Occupancy    []bool    `json:"occupancy"`
	LastMsgCount int       `json:"lastMsgCount"`
	LastSeen     time.Time `json:"lastSeen"`
}

func toDeviceResponse(d *model.Device) deviceResponse {
	occ := d.Occupancy
	if occ == nil {
		occ = []bool{}
	}
	return deviceResponse{
		DeviceID:     d.DeviceID,
		EntranceCm:   d.EntranceCm,
		ExitApproved: d.ExitApproved,
		Occupancy:    occ,
		LastMsgCount: d.LastMsgCount,
		LastSeen:     d.LastSeen,
	}
}

// ListDevices handles GET /api/devices: every known device, most recently
// seen first.
func (h *Handler) ListDevices(c *gin.Context) {
	devices, err := h.store.ListDevices(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve devices"})
		return
	}

	responses := make([]deviceResponse, 0, len(devices))
	for i := range devices {
		responses = append(responses, toDeviceResponse(&devices[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetSlotViews handles GET /api/devices/{device_id}/slots: the per-slot
// state merged from sensor occupancy and approved leases.
func (h *Handler) GetSlotViews(c *gin.Context) {
	deviceID := c.Param("device_id")

	views, err := h.leases.SlotViews(c.Request.Context(), deviceID)
	if err != nil {
		if errors.Is(err, lease.ErrDeviceNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "device not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to build slot view"})
		return
	}

	c.JSON(http.StatusOK, views)
}
