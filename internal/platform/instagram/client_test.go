package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost/cb",
		RPS:          100,
		Burst:        10,
		APIBaseURL:   srv.URL,
		GraphBaseURL: srv.URL,
	})
}

func TestAuthorizeURL(t *testing.T) {
	c := NewClient(Config{ClientID: "cid", RedirectURI: "http://localhost/cb"})
	raw, err := c.AuthorizeURL("st4te")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "api.instagram.com", u.Host)
	assert.Equal(t, "/oauth/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "http://localhost/cb", q.Get("redirect_uri"))
	assert.Equal(t, "user_profile,user_media", q.Get("scope"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "st4te", q.Get("state"))

	_, err = NewClient(Config{}).AuthorizeURL("x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestExchangeCode(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/access_token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		_, _ = w.Write([]byte(`{"access_token":"short","user_id":17841400000000000}`))
	}))

	tok, err := c.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "short", tok.AccessToken)
}

func TestExchangeLongLivedAndRefresh(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/access_token":
			assert.Equal(t, "ig_exchange_token", r.URL.Query().Get("grant_type"))
			_, _ = w.Write([]byte(`{"access_token":"long","token_type":"bearer","expires_in":5184000}`))
		case "/refresh_access_token":
			assert.Equal(t, "ig_refresh_token", r.URL.Query().Get("grant_type"))
			_, _ = w.Write([]byte(`{"access_token":"long2","token_type":"bearer","expires_in":5183944}`))
		default:
			http.NotFound(w, r)
		}
	}))

	tok, err := c.ExchangeLongLived(context.Background(), "short")
	require.NoError(t, err)
	assert.Equal(t, "long", tok.AccessToken)
	assert.Equal(t, int64(5184000), tok.ExpiresIn)

	tok, err = c.RefreshToken(context.Background(), "long")
	require.NoError(t, err)
	assert.Equal(t, "long2", tok.AccessToken)
}

func TestNon200IsAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))

	_, err := c.Me(context.Background(), "bad")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "Failed to get user info")
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
}

func TestMedia(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/media", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "cur", r.URL.Query().Get("after"))
		_, _ = w.Write([]byte(`{
			"data":[{"id":"m1","caption":"hi","media_type":"IMAGE","permalink":"https://instagram.com/p/1","timestamp":"2026-05-01T10:00:00+0000","like_count":4}],
			"paging":{"cursors":{"after":"next"}}
		}`))
	}))

	page, err := c.Media(context.Background(), "tok", 5, "cur")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "next", page.After)

	item := page.Items[0]
	assert.Equal(t, "m1", item.ID)
	assert.Equal(t, 4, item.LikeCount)
	assert.Equal(t, "IMAGE", item.Raw["media_type"])

	ts, err := item.PublishedAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), ts)
}

func TestContextCanceledWhileWaiting(t *testing.T) {
	c := NewClient(Config{RPS: 0.001, Burst: 1, GraphBaseURL: "http://127.0.0.1:1"})
	// drain the only token
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Me(ctx, "tok")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
