package api

import (
	"net/http"
	"strings"

	"equipment-service/internal/apperr"

	"github.com/gin-gonic/gin"
)

type codeBody struct {
	Code   string `json:"code" binding:"required"`
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

func bindCode(c *gin.Context) (codeBody, bool) {
	var in codeBody
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Validation("code is required"))
		return in, false
	}
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	return in, true
}

// listCodes returns all authorization codes; staff only
func (h *Handler) listCodes(c *gin.Context) {
	codes, err := h.codes.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", codes)
}

// myCodes returns the caller's own codes
func (h *Handler) myCodes(c *gin.Context) {
	codes, err := h.codes.MyCodes(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", codes)
}

// validateCode checks a code without redeeming it
func (h *Handler) validateCode(c *gin.Context) {
	in, ok := bindCode(c)
	if !ok {
		return
	}

	details, err := h.codes.Validate(c.Request.Context(), actorFrom(c), in.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "authorization code is valid", details)
}

// redeemCode turns a valid code into a checkout
func (h *Handler) redeemCode(c *gin.Context) {
	in, ok := bindCode(c)
	if !ok {
		return
	}

	checkout, err := h.codes.Redeem(c.Request.Context(), actorFrom(c), in.Code, in.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "equipment checked out", checkout)
}

// cancelCode voids an active code; staff only
func (h *Handler) cancelCode(c *gin.Context) {
	in, ok := bindCode(c)
	if !ok {
		return
	}

	if err := h.codes.Cancel(c.Request.Context(), actorFrom(c), in.Code, in.Reason); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "authorization code cancelled", nil)
}
