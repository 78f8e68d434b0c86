package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// dashboard returns operational counters for staff
func (h *Handler) dashboard(c *gin.Context) {
	stats, err := h.reports.Dashboard(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", stats)
}

// recentActivity returns the latest audit log entries for staff
func (h *Handler) recentActivity(c *gin.Context) {
	logs, err := h.reports.RecentActivity(c.Request.Context(), actorFrom(c), queryInt(c, "limit", 20))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", logs)
}
