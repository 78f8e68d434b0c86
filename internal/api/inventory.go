package api

import (
	"net/http"

	"equipment-service/internal/apperr"
	"equipment-service/internal/service"

	"github.com/gin-gonic/gin"
)

// listItems searches the equipment catalog
func (h *Handler) listItems(c *gin.Context) {
	items, pagination, err := h.inventory.List(
		c.Request.Context(),
		c.Query("search"),
		c.Query("category"),
		c.Query("status"),
		queryInt(c, "page", 1),
		queryInt(c, "limit", 20),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{
		"items":      items,
		"pagination": pagination,
	})
}

// getItem returns one catalog entry
func (h *Handler) getItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	item, err := h.inventory.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", item)
}

// createItem adds a catalog entry; staff only
func (h *Handler) createItem(c *gin.Context) {
	var in service.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Validation("invalid request body: %v", err))
		return
	}

	item, err := h.inventory.Create(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "item created", item)
}

// updateItem replaces a catalog entry; staff only
func (h *Handler) updateItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in service.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Validation("invalid request body: %v", err))
		return
	}

	item, err := h.inventory.Update(c.Request.Context(), actorFrom(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "item updated", item)
}

// deleteItem removes a catalog entry; admin only
func (h *Handler) deleteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.inventory.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "item deleted", nil)
}
