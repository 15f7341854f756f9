package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/common/middleware"
	dg "insta-giveaway-backend/internal/domain/giveaway"
	"insta-giveaway-backend/internal/service/giveaway"
)

// GiveawayService is the campaign manager as seen by the HTTP layer.
type GiveawayService interface {
	Create(ctx context.Context, actor giveaway.Actor, in giveaway.CreateInput) (*dg.Giveaway, error)
	Get(ctx context.Context, actor giveaway.Actor, id string) (*dg.Giveaway, error)
	Update(ctx context.Context, actor giveaway.Actor, id string, patch dg.Patch) (*dg.Giveaway, error)
	ChangeStatus(ctx context.Context, actor giveaway.Actor, id string, status dg.GiveawayStatus) (*dg.Giveaway, error)
	Delete(ctx context.Context, actor giveaway.Actor, id string) error
	List(ctx context.Context, actor giveaway.Actor, f dg.ListFilter) ([]dg.Giveaway, error)
	MyGiveaways(ctx context.Context, actor giveaway.Actor, limit, offset int) ([]dg.Giveaway, error)
	SelectWinners(ctx context.Context, actor giveaway.Actor, giveawayID string, count *int) ([]dg.Winner, error)
	RevalidateEntries(ctx context.Context, actor giveaway.Actor, giveawayID string) (*giveaway.RevalidateResult, error)

	CreateEntry(ctx context.Context, actor giveaway.Actor, giveawayID, instagramUsername string) (*dg.Entry, error)
	GetEntry(ctx context.Context, actor giveaway.Actor, id string) (*dg.Entry, error)
	ListEntries(ctx context.Context, actor giveaway.Actor, f dg.EntryFilter) ([]dg.Entry, error)
	MyEntries(ctx context.Context, actor giveaway.Actor, limit, offset int) ([]dg.Entry, error)
	VerifyEntry(ctx context.Context, actor giveaway.Actor, entryID string, force bool) (*dg.Entry, bool, error)

	ListWinners(ctx context.Context, actor giveaway.Actor, f dg.WinnerFilter) ([]dg.Winner, error)
	MarkContacted(ctx context.Context, actor giveaway.Actor, winnerID string) (*dg.Winner, error)
	MarkClaimed(ctx context.Context, actor giveaway.Actor, winnerID string) (*dg.Winner, error)

	CreateRule(ctx context.Context, actor giveaway.Actor, in giveaway.RuleInput) (*dg.Rule, error)
	UpdateRule(ctx context.Context, actor giveaway.Actor, id string, patch dg.RulePatch) (*dg.Rule, error)
	DeleteRule(ctx context.Context, actor giveaway.Actor, id string) error
	ListRules(ctx context.Context, actor giveaway.Actor, giveawayID string) ([]dg.Rule, error)
}

type GiveawayHandler struct {
	service GiveawayService
}

func NewGiveawayHandler(service GiveawayService) *GiveawayHandler {
	return &GiveawayHandler{service: service}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	w := middleware.HandleErrorWrapper

	giveaways := router.Group("/giveaway/giveaways")
	{
		giveaways.GET("", w(h.list))
		giveaways.POST("", w(h.create))
		giveaways.GET("/my_giveaways", w(h.myGiveaways))
		giveaways.GET("/:id", w(h.get))
		giveaways.PATCH("/:id", w(h.update))
		giveaways.DELETE("/:id", w(h.delete))
		giveaways.POST("/:id/status", w(h.changeStatus))
		giveaways.POST("/:id/select_winners", w(h.selectWinners))
		giveaways.POST("/:id/revalidate_entries", w(h.revalidateEntries))
	}

	entries := router.Group("/giveaway/entries")
	{
		entries.GET("", w(h.listEntries))
		entries.POST("", w(h.createEntry))
		entries.GET("/my_entries", w(h.myEntries))
		entries.GET("/:id", w(h.getEntry))
		entries.POST("/:id/verify", w(h.verifyEntry))
	}

	winners := router.Group("/giveaway/winners")
	{
		winners.GET("", w(h.listWinners))
		winners.POST("/:id/mark_contacted", w(h.markContacted))
		winners.POST("/:id/mark_claimed", w(h.markClaimed))
	}

	rules := router.Group("/giveaway/rules")
	{
		rules.GET("", w(h.listRules))
		rules.POST("", w(h.createRule))
		rules.PATCH("/:id", w(h.updateRule))
		rules.DELETE("/:id", w(h.deleteRule))
	}
}

// Giveaways

func (h *GiveawayHandler) list(c *gin.Context) {
	limit, offset, err := page(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	f := dg.ListFilter{
		Status:   dg.GiveawayStatus(c.Query("status")),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
		Limit:    limit,
		Offset:   offset,
	}
	if f.Status != "" && !f.Status.Valid() {
		_ = c.Error(errors.NewValidationError("status", "unknown status"))
		return
	}
	if v := c.Query("created_by"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			_ = c.Error(errors.NewValidationError("created_by", "must be a user id"))
			return
		}
		f.CreatedBy = &id
	}

	items, err := h.service.List(c.Request.Context(), actor(c), f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondList(c, items)
}

func (h *GiveawayHandler) create(c *gin.Context) {
	var in giveaway.CreateInput
	if !bindJSON(c, &in) {
		return
	}
	g, err := h.service.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *GiveawayHandler) myGiveaways(c *gin.Context) {
	limit, offset, err := page(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	items, err := h.service.MyGiveaways(c.Request.Context(), actor(c), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondList(c, items)
}

func (h *GiveawayHandler) get(c *gin.Context) {
	g, err := h.service.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GiveawayHandler) update(c *gin.Context) {
	var patch dg.Patch
	if !bindJSON(c, &patch) {
		return
	}
	g, err := h.service.Update(c.Request.Context(), actor(c), c.Param("id"), patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GiveawayHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

type statusRequest struct {
	Status dg.GiveawayStatus `json:"status" binding:"required"`
}

func (h *GiveawayHandler) changeStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	g, err := h.service.ChangeStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, g)
}

type selectWinnersRequest struct {
	Count *int `json:"count"`
}

func (h *GiveawayHandler) selectWinners(c *gin.Context) {
	var req selectWinnersRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	winners, err := h.service.SelectWinners(c.Request.Context(), actor(c), c.Param("id"), req.Count)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondList(c, winners)
}

func (h *GiveawayHandler) revalidateEntries(c *gin.Context) {
	res, err := h.service.RevalidateEntries(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Entries

func (h *GiveawayHandler) listEntries(c *gin.Context) {
	limit, offset, err := page(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	f := dg.EntryFilter{
		GiveawayID: c.Query("giveaway"),
		Status:     dg.VerificationStatus(c.Query("verification_status")),
		Limit:      limit,
		Offset:     offset,
	}
	items, err := h.service.ListEntries(c.Request.Context(), actor(c), f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondList(c, items)
}

type createEntryRequest struct {
	GiveawayID        string `json:"giveaway" binding:"required"`
	InstagramUsername string `json:"instagram_username" binding:"required"`
}

func (h *GiveawayHandler) createEntry(c *gin.Context) {
	var req createEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.service.CreateEntry(c.Request.Context(), actor(c), req.GiveawayID, req.InstagramUsername)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *GiveawayHandler) myEntries(c *gin.Context) {
	limit, offset, err := page(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	items, err := h.service.MyEntries(c.Request.Context(), actor(c), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondList(c, items)
}

func (h *GiveawayHandler) getEntry(c *gin.Context) {
	e, err := h.service.GetEntry(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, e)
}

type verifyResponse struct {
	Verified bool      `json:"verified"`
	Entry    *dg.Entry `json:"entry"`
}

func (h *GiveawayHandler) verifyEntry(c *gin.Context) {
	force, err := queryBool(c, "force")
	if err != nil {
		_ = c.Error(err)
		return
	}
	e, ok, err := h.service.VerifyEntry(c.Request.Context(), actor(c), c.Param("id"), force != nil && *force)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, verifyResponse{Verified: ok, Entry: e})
}

// Winners

func (h *GiveawayHandler) listWinners(c *gin.Context) {
	limit, offset, err := page(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	f := dg.WinnerFilter{GiveawayID: c.Query("giveaway"), Limit: limit, Offset: offset}
	if f.Contacted, err = queryBool(c, "contacted"); err != nil {
		_ = c.Error(err)
		return
	}
	if f.PrizeClaimed, err = queryBool(c, "prize_claimed"); err != nil {
		_ = c.Error(err)
		return
	}
	items, err := h.service.ListWinners(c.Request.Context(), actor(c), f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondList(c, items)
}

func (h *GiveawayHandler) markContacted(c *gin.Context) {
	w, err := h.service.MarkContacted(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *GiveawayHandler) markClaimed(c *gin.Context) {
	w, err := h.service.MarkClaimed(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// Rules

func (h *GiveawayHandler) listRules(c *gin.Context) {
	items, err := h.service.ListRules(c.Request.Context(), actor(c), c.Query("giveaway"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondList(c, items)
}

func (h *GiveawayHandler) createRule(c *gin.Context) {
	var in giveaway.RuleInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.service.CreateRule(c.Request.Context(), actor(c), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *GiveawayHandler) updateRule(c *gin.Context) {
	var patch dg.RulePatch
	if !bindJSON(c, &patch) {
		return
	}
	r, err := h.service.UpdateRule(c.Request.Context(), actor(c), c.Param("id"), patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *GiveawayHandler) deleteRule(c *gin.Context) {
	if err := h.service.DeleteRule(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
