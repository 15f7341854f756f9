package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"insta-giveaway-backend/internal/common/middleware"
	"insta-giveaway-backend/internal/domain/account"
)

type AccountService interface {
	RegisterSSO(ctx context.Context, reg account.SSORegistration) (*account.User, error)
	GetMe(ctx context.Context, u *account.User) (*account.User, error)
	UpdateProfile(ctx context.Context, u *account.User, patch account.ProfilePatch) (*account.User, error)
	List(ctx context.Context, u *account.User, limit, offset int) ([]account.User, error)
}

type AccountHandler struct {
	service AccountService
}

func NewAccountHandler(service AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// RegisterRoutes mounts the SSO endpoint on public and the rest on protected.
func (h *AccountHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/accounts/register-sso", middleware.HandleErrorWrapper(h.registerSSO))

	users := protected.Group("/accounts/users")
	{
		users.GET("", middleware.HandleErrorWrapper(h.list))
		users.GET("/me", middleware.HandleErrorWrapper(h.me))
		users.PATCH("/update_profile", middleware.HandleErrorWrapper(h.updateProfile))
		users.PUT("/update_profile", middleware.HandleErrorWrapper(h.updateProfile))
	}
}

func (h *AccountHandler) registerSSO(c *gin.Context) {
	var req account.SSORegistration
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.service.RegisterSSO(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AccountHandler) list(c *gin.Context) {
	limit, offset, err := page(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	users, err := h.service.List(c.Request.Context(), middleware.CurrentUser(c), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondList(c, users)
}

func (h *AccountHandler) me(c *gin.Context) {
	u, err := h.service.GetMe(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AccountHandler) updateProfile(c *gin.Context) {
	var patch account.ProfilePatch
	if !bindJSON(c, &patch) {
		return
	}
	u, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, u)
}
