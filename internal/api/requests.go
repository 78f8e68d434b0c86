package api

import (
	"net/http"

	"equipment-service/internal/apperr"
	"equipment-service/internal/service"

	"github.com/gin-gonic/gin"
)

// createRequest submits a new equipment request
func (h *Handler) createRequest(c *gin.Context) {
	var in service.CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Validation("invalid request body: %v", err))
		return
	}

	req, err := h.requests.Create(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "request submitted", req)
}

// listRequests returns active requests; students see only their own
func (h *Handler) listRequests(c *gin.Context) {
	requests, err := h.requests.List(c.Request.Context(), actorFrom(c), c.Query("search"), queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", requests)
}

// getRequest returns a single request
func (h *Handler) getRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	req, err := h.requests.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", req)
}

// requestAction dispatches approve/reject/cancel on a request
func (h *Handler) requestAction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Validation("action is required"))
		return
	}

	var newStatus string
	switch in.Action {
	case "approve":
		newStatus = "approved"
	case "reject":
		newStatus = "rejected"
	case "cancel":
		newStatus = "cancelled"
	default:
		respondError(c, apperr.Validation("unknown action: %s", in.Action))
		return
	}

	result, err := h.requests.Transition(c.Request.Context(), actorFrom(c), id, newStatus)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "request " + newStatus
	if result.Code != nil {
		message = "request approved, authorization code issued"
	}
	respondOK(c, http.StatusOK, message, result)
}
