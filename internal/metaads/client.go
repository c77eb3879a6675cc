// Package metaads is a client for the Meta Ad Library (ads_archive) API.
package metaads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/ad-insights/internal/config"
	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/pkg/httpretry"
	"github.com/ignite/ad-insights/internal/pkg/logger"
	"github.com/ignite/ad-insights/internal/service/collection"
)

// MaxPageSize is the largest page the API serves.
const MaxPageSize = 100

var searchFields = []string{
	"id",
	"ad_creation_time",
	"ad_delivery_start_time",
	"ad_delivery_stop_time",
	"ad_creative_bodies",
	"ad_creative_link_captions",
	"ad_creative_link_descriptions",
	"ad_creative_link_titles",
	"ad_snapshot_url",
	"page_id",
	"page_name",
	"publisher_platforms",
	"currency",
	"spend",
	"impressions",
}

// Limiter paces calls against the API quota.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Client searches the ad library. It implements collection.AdLibrary.
type Client struct {
	baseURL     string
	apiVersion  string
	accessToken string
	pageSize    int
	httpClient  httpretry.HTTPDoer
	limiter     Limiter
}

// NewClient creates an ad library client from configuration.
func NewClient(cfg config.MetaConfig) *Client {
	return newClient(cfg, httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, cfg.MaxRetries))
}

func newClient(cfg config.MetaConfig, doer httpretry.HTTPDoer) *Client {
	size := cfg.PageSize
	if size <= 0 || size > MaxPageSize {
		size = MaxPageSize
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiVersion:  cfg.APIVersion,
		accessToken: cfg.AccessToken,
		pageSize:    size,
		httpClient:  doer,
	}
}

// SetLimiter makes every search page wait on l first. Snapshot downloads
// are not API calls and are not limited.
func (c *Client) SetLimiter(l Limiter) {
	c.limiter = l
}

// SearchAds searches each term in turn until req.Limit ads are found. A
// term that fails is logged and skipped.
func (c *Client) SearchAds(ctx context.Context, req collection.SearchRequest) ([]domain.Ad, error) {
	if c.accessToken == "" {
		return nil, fmt.Errorf("metaads: access token not configured")
	}
	var all []domain.Ad
	for _, term := range req.Terms {
		if len(all) >= req.Limit {
			break
		}
		ads, err := c.searchTerm(ctx, term, req.Country, req.Limit-len(all))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Error("[MetaAds] search failed", "term", term, "error", err)
		}
		all = append(all, ads...)
	}
	if len(all) > req.Limit {
		all = all[:req.Limit]
	}
	return all, nil
}

// searchTerm follows paging.next until limit ads are read or the pages
// run out. Ads read before a failing page are returned with the error.
func (c *Client) searchTerm(ctx context.Context, term, country string, limit int) ([]domain.Ad, error) {
	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("search_terms", term)
	params.Set("ad_type", "ALL")
	params.Set("ad_reached_countries", `["`+country+`"]`)
	params.Set("ad_active_status", "ALL")
	params.Set("fields", strings.Join(searchFields, ","))
	params.Set("limit", strconv.Itoa(min(limit, c.pageSize)))

	next := fmt.Sprintf("%s/%s/ads_archive?%s", c.baseURL, c.apiVersion, params.Encode())
	var ads []domain.Ad
	for next != "" && len(ads) < limit {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return ads, err
			}
		}
		var page searchPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return ads, err
		}
		for _, raw := range page.Data {
			ad, ok := raw.toAd()
			if !ok {
				continue
			}
			ads = append(ads, ad)
		}
		next = page.Paging.Next
	}
	if len(ads) > limit {
		ads = ads[:limit]
	}
	return ads, nil
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	body, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(body), 512))
	}
	return body, nil
}

// FetchSnapshot downloads the creative behind a snapshot URL.
func (c *Client) FetchSnapshot(ctx context.Context, snapshotURL string) ([]byte, error) {
	if snapshotURL == "" {
		return nil, fmt.Errorf("metaads: empty snapshot url")
	}
	return c.get(ctx, snapshotURL)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// parseDate keeps the calendar date of an RFC3339 timestamp or a plain
// YYYY-MM-DD value.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			return &day
		}
	}
	return nil
}
