package handlers

import (
	"github.com/gin-gonic/gin"

	"RapidSafe/pkg/response"
)

func (h *Handlers) handleTrackAlert(c *gin.Context) {
	snap, err := h.deps.Alerts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "ok", snap)
}

// handleTrackEvents streams location and status changes of one alert.
func (h *Handlers) handleTrackEvents(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.deps.Alerts.Get(c.Request.Context(), id); err != nil {
		response.AbortWithError(c, err)
		return
	}
	h.deps.Hub.Serve(c, id)
}

func (h *Handlers) handleTrackSocket(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.deps.Alerts.Get(c.Request.Context(), id); err != nil {
		response.AbortWithError(c, err)
		return
	}
	h.deps.WS.Serve(c, id)
}
