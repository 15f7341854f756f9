package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"insta-giveaway-backend/internal/common/middleware"
	da "insta-giveaway-backend/internal/domain/analytics"
	analyticssvc "insta-giveaway-backend/internal/service/analytics"
)

type AnalyticsService interface {
	Overview(ctx context.Context, userID int64) (*da.OverviewStats, error)
	Timeseries(ctx context.Context, userID int64, from, to time.Time) ([]da.ActivityPoint, error)
	Engagement(ctx context.Context, userID int64) (*analyticssvc.EngagementResult, error)
	TopGiveaways(ctx context.Context, userID int64, limit int) ([]da.TopGiveaway, error)
}

type AnalyticsHandler struct {
	service AnalyticsService
}

func NewAnalyticsHandler(service AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	w := middleware.HandleErrorWrapper

	a := router.Group("/analytics")
	{
		a.GET("/overview", w(h.overview))
		a.GET("/timeseries", w(h.timeseries))
		a.GET("/engagement-breakdown", w(h.engagement))
		a.GET("/top-giveaways", w(h.topGiveaways))
	}
}

func (h *AnalyticsHandler) overview(c *gin.Context) {
	stats, err := h.service.Overview(c.Request.Context(), actor(c).UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AnalyticsHandler) timeseries(c *gin.Context) {
	from, err := queryTime(c, "from")
	if err != nil {
		_ = c.Error(err)
		return
	}
	to, err := queryTime(c, "to")
	if err != nil {
		_ = c.Error(err)
		return
	}
	points, err := h.service.Timeseries(c.Request.Context(), actor(c).UserID, from, to)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondList(c, points)
}

func (h *AnalyticsHandler) engagement(c *gin.Context) {
	res, err := h.service.Engagement(c.Request.Context(), actor(c).UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AnalyticsHandler) topGiveaways(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	top, err := h.service.TopGiveaways(c.Request.Context(), actor(c).UserID, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondList(c, top)
}
