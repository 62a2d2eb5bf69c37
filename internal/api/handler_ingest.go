package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-lease-backend/internal/occupancy"
	"parking-lease-backend/internal/store"
)

type ingestRequest struct {
	DeviceID     string          `json:"deviceId" binding:"required"`
	EntranceCm   int             `json:"entranceCm"`
	ExitApproved bool            `json:"exitApproved"`
	Slots        json.RawMessage `json:"slots"`
	MsgCount     int             `json:"msgCount"`
}

// Ingest handles POST /api/ingest: one telemetry message from the device
// relay. Occupancy arrives in either the per-slot or the legacy aggregate
// shape and is normalized before it touches the database.
func (h *Handler) Ingest(c *gin.Context) {
	if c.GetHeader("x-api-key") != h.cfg.Ingest.APIKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
		return
	}

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "deviceId missing"})
		return
	}

	if pinned := h.cfg.Ingest.DeviceID; pinned != "" && req.DeviceID != pinned {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "unrecognized device id"})
		return
	}

	update := store.TelemetryUpdate{
		DeviceID:     req.DeviceID,
		EntranceCm:   req.EntranceCm,
		ExitApproved: req.ExitApproved,
		Occupancy:    occupancy.Normalize(req.Slots, h.cfg.Lease.SlotCount),
		MsgCount:     req.MsgCount,
	}

	if _, err := h.store.UpsertTelemetry(c.Request.Context(), update, time.Now().UTC()); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to persist telemetry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
