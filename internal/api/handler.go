package api

import (
	"net/http"
	"strconv"
	"time"

	"equipment-service/internal/apperr"
	"equipment-service/internal/service"
	"equipment-service/internal/session"
	"equipment-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	users         *service.UserService
	inventory     *service.InventoryService
	requests      *service.RequestService
	codes         *service.CodeService
	checkouts     *service.CheckoutService
	issues        *service.IssueService
	announcements *service.AnnouncementService
	reports       *service.ReportService
	sessions      *session.Store
}

// NewHandler creates a new HTTP handler
func NewHandler(
	users *service.UserService,
	inventory *service.InventoryService,
	requests *service.RequestService,
	codes *service.CodeService,
	checkouts *service.CheckoutService,
	issues *service.IssueService,
	announcements *service.AnnouncementService,
	reports *service.ReportService,
	sessions *session.Store,
) *Handler {
	return &Handler{
		users:         users,
		inventory:     inventory,
		requests:      requests,
		codes:         codes,
		checkouts:     checkouts,
		issues:        issues,
		announcements: announcements,
		reports:       reports,
		sessions:      sessions,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/api/v1/login", h.login)
	router.POST("/api/v1/logout", h.logout)

	v1 := router.Group("/api/v1")
	v1.Use(h.requireSession())
	{
		v1.GET("/inventory", h.listItems)
		v1.GET("/inventory/:id", h.getItem)
		v1.POST("/inventory", h.createItem)
		v1.PUT("/inventory/:id", h.updateItem)
		v1.DELETE("/inventory/:id", h.deleteItem)

		v1.POST("/requests", h.createRequest)
		v1.GET("/requests", h.listRequests)
		v1.GET("/requests/:id", h.getRequest)
		v1.POST("/requests/:id/action", h.requestAction)

		v1.GET("/codes", h.listCodes)
		v1.GET("/codes/mine", h.myCodes)
		v1.POST("/codes/validate", h.validateCode)
		v1.POST("/codes/redeem", h.redeemCode)
		v1.POST("/codes/cancel", h.cancelCode)

		v1.POST("/checkouts", h.directCheckout)
		v1.GET("/checkouts", h.listCheckouts)
		v1.GET("/checkouts/history", h.checkoutHistory)
		v1.POST("/checkouts/:id/checkin", h.checkIn)

		v1.POST("/issues", h.reportIssue)
		v1.GET("/issues", h.listIssues)
		v1.POST("/issues/:id/resolve", h.resolveIssue)

		v1.GET("/announcements", h.listAnnouncements)
		v1.POST("/announcements", h.createAnnouncement)
		v1.POST("/announcements/:id/dismiss", h.dismissAnnouncement)
		v1.POST("/announcements/:id/deactivate", h.deactivateAnnouncement)

		v1.GET("/users", h.listUsers)
		v1.POST("/users", h.createUser)

		v1.GET("/dashboard", h.dashboard)
		v1.GET("/dashboard/activity", h.recentActivity)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondOK writes the standard success envelope
func respondOK(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// respondError maps a service error to the failure envelope
func respondError(c *gin.Context, err error) {
	e := apperr.From(err)
	c.JSON(e.HTTPStatus(), gin.H{
		"success": false,
		"message": e.Message,
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.Validation("invalid id"))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		util.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		util.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
