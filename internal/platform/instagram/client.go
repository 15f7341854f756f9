package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"insta-giveaway-backend/internal/metrics"
)

const (
	DefaultAPIBaseURL   = "https://api.instagram.com"
	DefaultGraphBaseURL = "https://graph.instagram.com"

	mediaFields = "id,caption,media_type,media_url,permalink,thumbnail_url,timestamp,username,like_count,comments_count,children{media_url,thumbnail_url}"
)

// ErrNotConfigured is returned when the app credentials are missing.
var ErrNotConfigured = errors.New("Instagram client ID not configured.")

// APIError is a non-200 response from Instagram.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Failed to %s: %s", e.Op, e.Body)
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Timeout      time.Duration
	RPS          float64
	Burst        int

	// overridable for tests
	APIBaseURL   string
	GraphBaseURL string
}

// Client talks to the Instagram OAuth and Graph endpoints. All calls share
// one token bucket.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        Config
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = DefaultGraphBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		cfg:        cfg,
	}
}

// Token is an access token grant.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Profile is the /me response.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// MediaItem is one element of /me/media. Raw keeps every field returned.
type MediaItem struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	MediaType     string `json:"media_type"`
	MediaURL      string `json:"media_url"`
	Permalink     string `json:"permalink"`
	Timestamp     string `json:"timestamp"`
	LikeCount     int    `json:"like_count"`
	CommentsCount int    `json:"comments_count"`

	Raw map[string]interface{} `json:"-"`
}

// PublishedAt parses Instagram's "+0000" style timestamps.
func (m MediaItem) PublishedAt() (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05-0700", m.Timestamp); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.RFC3339, m.Timestamp)
}

// MediaPage is a page of media with the cursor for the next one.
type MediaPage struct {
	Items []MediaItem
	After string
}

// AuthorizeURL builds the consent URL for the given state.
func (c *Client) AuthorizeURL(state string) (string, error) {
	if c.cfg.ClientID == "" {
		return "", ErrNotConfigured
	}
	q := url.Values{
		"client_id":     {c.cfg.ClientID},
		"redirect_uri":  {c.cfg.RedirectURI},
		"scope":         {"user_profile,user_media"},
		"response_type": {"code"},
		"state":         {state},
	}
	return c.cfg.APIBaseURL + "/oauth/authorize?" + q.Encode(), nil
}

// ExchangeCode trades an authorization code for a short-lived token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return nil, errors.New("Instagram client ID or secret not configured.")
	}
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.cfg.RedirectURI},
		"code":          {code},
	}
	var out Token
	if err := c.makeRequest(ctx, "exchange code for token", http.MethodPost, c.cfg.APIBaseURL+"/oauth/access_token", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExchangeLongLived trades a short-lived token for a 60 day one.
func (c *Client) ExchangeLongLived(ctx context.Context, shortLived string) (*Token, error) {
	q := url.Values{
		"grant_type":    {"ig_exchange_token"},
		"client_secret": {c.cfg.ClientSecret},
		"access_token":  {shortLived},
	}
	var out Token
	if err := c.makeRequest(ctx, "exchange for long-lived token", http.MethodGet, c.cfg.GraphBaseURL+"/access_token", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshToken extends a long-lived token.
func (c *Client) RefreshToken(ctx context.Context, accessToken string) (*Token, error) {
	q := url.Values{
		"grant_type":   {"ig_refresh_token"},
		"access_token": {accessToken},
	}
	var out Token
	if err := c.makeRequest(ctx, "refresh token", http.MethodGet, c.cfg.GraphBaseURL+"/refresh_access_token", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context, accessToken string) (*Profile, error) {
	q := url.Values{
		"fields":       {"id,username"},
		"access_token": {accessToken},
	}
	var out Profile
	if err := c.makeRequest(ctx, "get user info", http.MethodGet, c.cfg.GraphBaseURL+"/me", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Media fetches one page of the token owner's media.
func (c *Client) Media(ctx context.Context, accessToken string, limit int, after string) (*MediaPage, error) {
	q := url.Values{
		"fields":       {mediaFields},
		"access_token": {accessToken},
		"limit":        {strconv.Itoa(limit)},
	}
	if after != "" {
		q.Set("after", after)
	}

	var resp struct {
		Data   []json.RawMessage `json:"data"`
		Paging struct {
			Cursors struct {
				After string `json:"after"`
			} `json:"cursors"`
		} `json:"paging"`
	}
	if err := c.makeRequest(ctx, "get user media", http.MethodGet, c.cfg.GraphBaseURL+"/me/media", q, &resp); err != nil {
		return nil, err
	}

	page := &MediaPage{Items: make([]MediaItem, 0, len(resp.Data)), After: resp.Paging.Cursors.After}
	for _, raw := range resp.Data {
		var item MediaItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("decode media item: %w", err)
		}
		if err := json.Unmarshal(raw, &item.Raw); err != nil {
			return nil, fmt.Errorf("decode media item: %w", err)
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

func (c *Client) wait(ctx context.Context) error {
	r := c.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("rate: cannot reserve token")
	}
	if delay := r.Delay(); delay > 0 {
		metrics.InstagramRateLimitWaits.Inc()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			r.Cancel()
			return ctx.Err()
		}
	}
	return nil
}

func (c *Client) makeRequest(ctx context.Context, op, method, endpoint string, data url.Values, out any) (err error) {
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.InstagramCalls.WithLabelValues(op, status).Inc()
	}()

	if err := c.wait(ctx); err != nil {
		return err
	}

	var req *http.Request
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(data.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		if len(data) > 0 {
			endpoint = endpoint + "?" + data.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, method, endpoint, nil)
		if err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Network error during %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
