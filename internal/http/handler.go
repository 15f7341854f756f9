package http

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/common/middleware"
	"insta-giveaway-backend/internal/service/giveaway"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// actor builds the service caller from the authenticated request.
func actor(c *gin.Context) giveaway.Actor {
	a := giveaway.Actor{IP: c.ClientIP()}
	if u := middleware.CurrentUser(c); u != nil {
		a.UserID = u.ID
		a.IsStaff = u.IsStaff
	}
	return a
}

func page(c *gin.Context) (limit, offset int, err error) {
	limit, offset = defaultPageSize, 0
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 {
			return 0, 0, errors.NewValidationError("limit", "must be a positive integer")
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}
	if v := c.Query("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, errors.NewValidationError("offset", "must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, errors.NewValidationError(key, "must be true or false")
	}
	return &b, nil
}

func queryTime(c *gin.Context, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, errors.NewValidationError(key, "must be an RFC3339 timestamp or YYYY-MM-DD date")
	}
	return t, nil
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(errors.Wrap(err, errors.ErrCodeValidation, "Invalid request body: "+err.Error()))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for bodies that may be absent. Content-Length
// is not consulted since chunked requests report -1.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || stderrors.Is(err, io.EOF) {
		return true
	}
	_ = c.Error(errors.Wrap(err, errors.ErrCodeValidation, "Invalid request body: "+err.Error()))
	return false
}

// listResponse is the envelope of every collection endpoint.
type listResponse struct {
	Count   int         `json:"count"`
	Results interface{} `json:"results"`
}

func respondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, listResponse{Count: len(items), Results: items})
}
