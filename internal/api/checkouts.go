package api

import (
	"net/http"

	"equipment-service/internal/apperr"
	"equipment-service/internal/service"

	"github.com/gin-gonic/gin"
)

// directCheckout records custody of equipment without a request
func (h *Handler) directCheckout(c *gin.Context) {
	var in service.DirectCheckoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Validation("invalid request body: %v", err))
		return
	}

	checkout, err := h.checkouts.DirectCheckout(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "equipment checked out", checkout)
}

// listCheckouts returns open checkouts; students see only their own
func (h *Handler) listCheckouts(c *gin.Context) {
	checkouts, err := h.checkouts.ListOpen(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", checkouts)
}

// checkoutHistory returns the caller's full checkout history
func (h *Handler) checkoutHistory(c *gin.Context) {
	checkouts, err := h.checkouts.History(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", checkouts)
}

// checkIn closes an open checkout
func (h *Handler) checkIn(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in service.CheckInInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			respondError(c, apperr.Validation("invalid request body: %v", err))
			return
		}
	}
	in.CheckoutID = id

	checkout, err := h.checkouts.CheckIn(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "equipment returned", checkout)
}
