package api

import (
	"net/http"

	"equipment-service/internal/apperr"
	"equipment-service/internal/service"

	"github.com/gin-gonic/gin"
)

// listUsers returns registered users; staff only
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), actorFrom(c), c.Query("search"), c.Query("role"), queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", users)
}

// createUser registers a new account; staff only
func (h *Handler) createUser(c *gin.Context) {
	var in service.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Validation("invalid request body: %v", err))
		return
	}

	user, err := h.users.Create(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "user created", user)
}
