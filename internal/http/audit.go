package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/common/middleware"
	"insta-giveaway-backend/internal/domain/audit"
)

type AuditService interface {
	List(ctx context.Context, staff bool, f audit.Filter) ([]audit.Log, error)
	Export(ctx context.Context, staff bool, since time.Time) (string, int, error)
}

// AuditHandler exposes the audit log to staff.
type AuditHandler struct {
	service AuditService
}

func NewAuditHandler(service AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	logs := router.Group("/giveaway/audit-logs", middleware.RequireStaff())
	{
		logs.GET("", middleware.HandleErrorWrapper(h.list))
		logs.POST("/export", middleware.HandleErrorWrapper(h.export))
	}
}

func (h *AuditHandler) list(c *gin.Context) {
	limit, offset, err := page(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	f := audit.Filter{
		ActionType: audit.ActionType(c.Query("action_type")),
		ObjectType: c.Query("object_type"),
		ObjectID:   c.Query("object_id"),
		Ascending:  c.Query("ordering") == "timestamp",
		Limit:      limit,
		Offset:     offset,
	}
	if v := c.Query("user"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			_ = c.Error(errors.NewValidationError("user", "must be a user id"))
			return
		}
		f.UserID = &id
	}

	logs, err := h.service.List(c.Request.Context(), actor(c).IsStaff, f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondList(c, logs)
}

type exportRequest struct {
	Since time.Time `json:"since"`
}

type exportResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

func (h *AuditHandler) export(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	if req.Since.IsZero() {
		req.Since = time.Now().UTC().Add(-24 * time.Hour)
	}
	key, n, err := h.service.Export(c.Request.Context(), actor(c).IsStaff, req.Since)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, exportResponse{Key: key, Count: n})
}
