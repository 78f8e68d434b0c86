package api

import (
	"net/http"

	"equipment-service/internal/apperr"
	"equipment-service/internal/models"
	"equipment-service/internal/session"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// requireSession resolves the session cookie into an Actor and stores it in
// the request context. Requests without a live session are rejected.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(session.CookieName)
		if err != nil || id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "authentication required",
			})
			return
		}

		sess, err := h.sessions.Get(c.Request.Context(), id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "session expired",
			})
			return
		}

		c.Set(actorKey, sess.Actor())
		c.Next()
	}
}

func actorFrom(c *gin.Context) models.Actor {
	v, _ := c.Get(actorKey)
	actor, _ := v.(models.Actor)
	return actor
}

// login handles credential authentication and opens a session
func (h *Handler) login(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Validation("email and password are required"))
		return
	}

	user, err := h.users.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	id, err := h.sessions.Create(c.Request.Context(), user.ID, user.Role)
	if err != nil {
		respondError(c, apperr.Persistence("failed to open session", err))
		return
	}

	c.SetCookie(session.CookieName, id, int(h.sessions.TTL().Seconds()), "/", "", false, true)
	respondOK(c, http.StatusOK, "login successful", gin.H{
		"user_id":    user.ID,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       user.Role,
	})
}

// logout closes the current session if one exists
func (h *Handler) logout(c *gin.Context) {
	if id, err := c.Cookie(session.CookieName); err == nil && id != "" {
		_ = h.sessions.Delete(c.Request.Context(), id)
	}
	c.SetCookie(session.CookieName, "", -1, "/", "", false, true)
	respondOK(c, http.StatusOK, "logged out", nil)
}
