package api

import (
	"net/http"

	"equipment-service/internal/apperr"
	"equipment-service/internal/service"

	"github.com/gin-gonic/gin"
)

// listAnnouncements returns announcements visible to the caller
func (h *Handler) listAnnouncements(c *gin.Context) {
	announcements, err := h.announcements.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", announcements)
}

// createAnnouncement publishes a new announcement; staff only
func (h *Handler) createAnnouncement(c *gin.Context) {
	var in service.CreateAnnouncementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Validation("invalid request body: %v", err))
		return
	}

	announcement, err := h.announcements.Create(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "announcement created", announcement)
}

// dismissAnnouncement hides an announcement for the caller
func (h *Handler) dismissAnnouncement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.announcements.Dismiss(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "announcement dismissed", nil)
}

// deactivateAnnouncement retires an announcement; staff only
func (h *Handler) deactivateAnnouncement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.announcements.Deactivate(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "announcement deactivated", nil)
}
