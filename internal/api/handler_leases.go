package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"parking-lease-backend/internal/auth"
	"parking-lease-backend/internal/lease"
	"parking-lease-backend/internal/model"
)

type leaseResponse struct {
	ID         uint64            `json:"id"`
	UserID     uint64            `json:"userId"`
	DeviceID   string            `json:"deviceId"`
	SlotID     int               `json:"slotId"`
	Status     model.LeaseStatus `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	ExpiresAt  *time.Time        `json:"expiresAt"`
	ApprovedAt *time.Time        `json:"approvedAt"`
	FinishedAt *time.Time        `json:"finishedAt"`
}

func toLeaseResponse(l *model.Lease) leaseResponse {
	return leaseResponse{
		ID:         l.ID,
		UserID:     l.UserID,
		DeviceID:   l.DeviceID,
		SlotID:     l.SlotID,
		Status:     l.Status,
		CreatedAt:  l.CreatedAt,
		ExpiresAt:  l.ExpiresAt,
		ApprovedAt: l.ApprovedAt,
		FinishedAt: l.FinishedAt,
	}
}

// leaseErrorStatus maps engine errors onto HTTP status codes. Conflicts are
// per-request outcomes, never fatal.
func leaseErrorStatus(err error) int {
	switch {
	case errors.Is(err, lease.ErrInvalidSlot):
		return http.StatusBadRequest
	case errors.Is(err, lease.ErrNotFound), errors.Is(err, lease.ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, lease.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, lease.ErrSlotOccupied),
		errors.Is(err, lease.ErrSlotAlreadyLeased),
		errors.Is(err, lease.ErrUserHasActiveLease),
		errors.Is(err, lease.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type requestLeaseRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
	SlotID   int    `json:"slotId" binding:"required"`
}

// RequestLease handles POST /api/leases: a new reservation attempt.
func (h *Handler) RequestLease(c *gin.Context) {
	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	if !ident.CanLease() {
		c.JSON(http.StatusForbidden, gin.H{"error": "account is not approved for booking"})
		return
	}

	var req requestLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	created, err := h.leases.Request(c.Request.Context(), ident.UserID, req.DeviceID, req.SlotID)
	if err != nil {
		c.JSON(leaseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toLeaseResponse(created))
}

// ListLeases handles GET /api/leases. Regular users see their own leases;
// admins see everything, optionally filtered by ?device_id=.
func (h *Handler) ListLeases(c *gin.Context) {
	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}

	var (
		leases []model.Lease
		err    error
	)
	switch {
	case !ident.IsAdmin():
		leases, err = h.leases.ListForUser(c.Request.Context(), ident.UserID)
	case c.Query("device_id") != "":
		leases, err = h.leases.ListForDevice(c.Request.Context(), c.Query("device_id"))
	default:
		leases, err = h.leases.ListAll(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list leases"})
		return
	}

	responses := make([]leaseResponse, 0, len(leases))
	for i := range leases {
		responses = append(responses, toLeaseResponse(&leases[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// CancelLease handles DELETE /api/leases/{id}. Owner or admin only. A
// failed device notification is reported but does not undo the
// cancellation.
func (h *Handler) CancelLease(c *gin.Context) {
	ident, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	leaseID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lease id"})
		return
	}

	err = h.leases.Cancel(c.Request.Context(), ident.UserID, ident.IsAdmin(), leaseID)
	var actErr *lease.ActuationError
	if errors.As(err, &actErr) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "actuationError": actErr.Error()})
		return
	}
	if err != nil {
		c.JSON(leaseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ApproveLease handles POST /api/leases/{id}/approve. Occupancy is
// re-checked at approval time; a now-occupied slot turns the approval into
// a rejection, reported distinctly from a hard failure. Actuation failure
// after a committed approval is a partial success, not a rollback.
func (h *Handler) ApproveLease(c *gin.Context) {
	leaseID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lease id"})
		return
	}

	decided, err := h.leases.Approve(c.Request.Context(), leaseID)
	if errors.Is(err, lease.ErrAutoRejected) {
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
			"lease": toLeaseResponse(decided),
		})
		return
	}
	var actErr *lease.ActuationError
	if errors.As(err, &actErr) {
		c.JSON(http.StatusOK, gin.H{
			"lease":          toLeaseResponse(decided),
			"actuationError": actErr.Error(),
		})
		return
	}
	if err != nil {
		c.JSON(leaseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lease": toLeaseResponse(decided)})
}

// RejectLease handles POST /api/leases/{id}/reject: the unconditional
// admin counterpart of approve.
func (h *Handler) RejectLease(c *gin.Context) {
	leaseID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lease id"})
		return
	}

	rejected, err := h.leases.Reject(c.Request.Context(), leaseID)
	if err != nil {
		c.JSON(leaseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lease": toLeaseResponse(rejected)})
}

// CompleteLease handles POST /api/leases/{id}/complete: an admin confirms
// the arrival.
func (h *Handler) CompleteLease(c *gin.Context) {
	leaseID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lease id"})
		return
	}

	completed, err := h.leases.Complete(c.Request.Context(), leaseID)
	if err != nil {
		c.JSON(leaseErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lease": toLeaseResponse(completed)})
}
