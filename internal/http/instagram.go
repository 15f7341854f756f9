package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/common/middleware"
	"insta-giveaway-backend/internal/domain/social"
	socialsvc "insta-giveaway-backend/internal/service/social"
)

type InstagramService interface {
	AuthURL(ctx context.Context, userID int64) (string, error)
	HandleCallback(ctx context.Context, p socialsvc.CallbackParams) string
	GetMine(ctx context.Context, userID int64) (*social.Account, error)
	Refresh(ctx context.Context, userID int64) (*social.Account, error)
	Disconnect(ctx context.Context, userID int64) error
	ListMedia(ctx context.Context, userID int64) ([]social.Media, error)
	RefreshMedia(ctx context.Context, userID int64, limit int, after string) (*socialsvc.MediaResult, error)
}

type InstagramHandler struct {
	service InstagramService
}

func NewInstagramHandler(service InstagramService) *InstagramHandler {
	return &InstagramHandler{service: service}
}

// RegisterRoutes mounts the OAuth callback on public: Instagram redirects
// the browser there without our bearer token.
func (h *InstagramHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	w := middleware.HandleErrorWrapper

	public.GET("/instagram/auth/callback", h.callback)

	ig := protected.Group("/instagram")
	{
		ig.GET("/auth", w(h.authURL))
		ig.GET("/accounts/me", w(h.me))
		ig.POST("/accounts/refresh_token", w(h.refresh))
		ig.POST("/accounts/disconnect", w(h.disconnect))
		ig.GET("/media", w(h.listMedia))
		ig.POST("/media/refresh", w(h.refreshMedia))
	}
}

func (h *InstagramHandler) authURL(c *gin.Context) {
	u, err := h.service.AuthURL(c.Request.Context(), actor(c).UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_url": u})
}

func (h *InstagramHandler) callback(c *gin.Context) {
	var p socialsvc.CallbackParams
	_ = c.ShouldBindQuery(&p)
	c.Redirect(http.StatusFound, h.service.HandleCallback(c.Request.Context(), p))
}

func (h *InstagramHandler) me(c *gin.Context) {
	acc, err := h.service.GetMine(c.Request.Context(), actor(c).UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (h *InstagramHandler) refresh(c *gin.Context) {
	acc, err := h.service.Refresh(c.Request.Context(), actor(c).UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (h *InstagramHandler) disconnect(c *gin.Context) {
	if err := h.service.Disconnect(c.Request.Context(), actor(c).UserID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Instagram account disconnected"})
}

func (h *InstagramHandler) listMedia(c *gin.Context) {
	items, err := h.service.ListMedia(c.Request.Context(), actor(c).UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondList(c, items)
}

func (h *InstagramHandler) refreshMedia(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			_ = c.Error(errors.NewValidationError("limit", "must be a positive integer"))
			return
		}
		limit = n
	}
	res, err := h.service.RefreshMedia(c.Request.Context(), actor(c).UserID, limit, c.Query("after"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}
