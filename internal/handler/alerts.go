package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"RapidSafe/internal/alerting"
	apperrors "RapidSafe/pkg/errors"
	"RapidSafe/pkg/middleware"
	"RapidSafe/pkg/response"
)

func identityOf(c *gin.Context) *alerting.Identity {
	uid := middleware.UserID(c)
	if uid == "" {
		return nil
	}
	return &alerting.Identity{UID: uid}
}

func (h *Handlers) handleCreateAlert(c *gin.Context) {
	caller := identityOf(c)
	var req alerting.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 未登录优先报告
		if caller == nil {
			response.AbortWithError(c, apperrors.Unauthenticated("The function must be called by an authenticated user."))
			return
		}
		response.AbortWithError(c, apperrors.InvalidArgument("malformed request body"))
		return
	}
	resp, err := h.deps.Alerts.CreateAlert(c.Request.Context(), caller, req)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) handleUpdateLocation(c *gin.Context) {
	caller := identityOf(c)
	if caller == nil {
		response.AbortWithError(c, apperrors.Unauthenticated("authentication required"))
		return
	}
	var upd alerting.LocationUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.AbortWithError(c, apperrors.InvalidArgument("malformed location update"))
		return
	}
	applied, err := h.deps.Alerts.UpdateLocation(c.Request.Context(), caller, c.Param("id"), upd)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerting.LocationUpdateResult{Applied: applied})
}

func (h *Handlers) handleResolveAlert(c *gin.Context) {
	snap, err := h.deps.Alerts.Resolve(c.Request.Context(), identityOf(c), c.Param("id"))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "alert resolved", snap)
}

func (h *Handlers) handleCancelAlert(c *gin.Context) {
	snap, err := h.deps.Alerts.Cancel(c.Request.Context(), identityOf(c), c.Param("id"))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "alert cancelled", snap)
}
