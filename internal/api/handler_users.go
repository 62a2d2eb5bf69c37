package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parking-lease-backend/internal/model"
	"parking-lease-backend/internal/store"
)

// ApproveUser handles POST /api/users/{id}/approve: admin clears an
// account for booking.
func (h *Handler) ApproveUser(c *gin.Context) {
	h.setUserApproval(c, model.ApprovalApproved)
}

// RejectUser handles POST /api/users/{id}/reject.
func (h *Handler) RejectUser(c *gin.Context) {
	h.setUserApproval(c, model.ApprovalRejected)
}

func (h *Handler) setUserApproval(c *gin.Context, status model.ApprovalStatus) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.store.SetUserApproval(c.Request.Context(), userID, status)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}
