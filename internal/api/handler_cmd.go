package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-lease-backend/internal/actuator"
)

type openGateRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
}

// CmdOpenGate handles POST /api/cmd/open-gate: an admin manually opens the
// entrance gate.
func (h *Handler) CmdOpenGate(c *gin.Context) {
	var req openGateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId missing"})
		return
	}

	if err := h.commander.SendCommand(c.Request.Context(), req.DeviceID, actuator.OpenGate()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type exitApprovedRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
	Approved *bool  `json:"approved" binding:"required"`
}

// CmdExitApproved handles POST /api/cmd/exit-approved: an admin toggles the
// exit-approval flag on the controller.
func (h *Handler) CmdExitApproved(c *gin.Context) {
	var req exitApprovedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId and approved are required"})
		return
	}

	if err := h.commander.SendCommand(c.Request.Context(), req.DeviceID, actuator.ExitApproved(*req.Approved)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
