package api

import (
	"net/http"

	"equipment-service/internal/apperr"
	"equipment-service/internal/service"

	"github.com/gin-gonic/gin"
)

// reportIssue files a problem report against a catalog item
func (h *Handler) reportIssue(c *gin.Context) {
	var in service.ReportIssueInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Validation("invalid request body: %v", err))
		return
	}

	issue, err := h.issues.Report(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "issue reported", issue)
}

// listIssues returns issues; students see only their own
func (h *Handler) listIssues(c *gin.Context) {
	issues, err := h.issues.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", issues)
}

// resolveIssue closes an open issue; staff only
func (h *Handler) resolveIssue(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.issues.Resolve(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "issue resolved", nil)
}
