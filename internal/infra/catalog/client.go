// Package catalog is the HTTP client for the tmdb-sync title catalog
// service. The core treats it as remote and unreliable: callers absorb
// errors as "no data" rather than retrying here.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"framequiz-service/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) GetTitle(ctx context.Context, id int64, mediaType string) (domain.Title, error) {
	params := url.Values{}
	if mediaType != "" {
		params.Set("_type", mediaType)
	}

	var title domain.Title
	if err := c.getJSON(ctx, fmt.Sprintf("/movies/%d", id), params, &title); err != nil {
		return domain.Title{}, err
	}
	return title, nil
}

type framesResponse struct {
	Frames []struct {
		Path string `json:"path"`
	} `json:"frames"`
}

// GetFrames returns the frame refs for a title, ranked by quality on the
// tmdb-sync side. An empty list is not an error.
func (c *Client) GetFrames(ctx context.Context, id int64, mediaType string) ([]string, error) {
	params := url.Values{}
	if mediaType != "" {
		params.Set("_type", mediaType)
	}

	var resp framesResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/movies/%d/frames", id), params, &resp); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(resp.Frames))
	for _, f := range resp.Frames {
		paths = append(paths, f.Path)
	}
	return paths, nil
}

type searchResponse struct {
	Items   []domain.Title `json:"items"`
	Results []domain.Title `json:"results"`
}

func (c *Client) SearchTitles(ctx context.Context, q domain.TitleQuery) ([]domain.Title, error) {
	params := url.Values{}
	if q.GenreID != 0 {
		params.Set("genre_id", strconv.FormatInt(q.GenreID, 10))
	}
	if q.YearFrom != 0 {
		params.Set("year_from", strconv.Itoa(q.YearFrom))
	}
	if q.YearTo != 0 {
		params.Set("year_to", strconv.Itoa(q.YearTo))
	}
	if q.MediaType != "" {
		params.Set("_type", q.MediaType)
	}
	if q.SortBy != "" {
		params.Set("sort_by", q.SortBy)
	}
	if q.Order != "" {
		params.Set("order", q.Order)
	}
	if q.Limit != 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip != 0 {
		params.Set("skip", strconv.Itoa(q.Skip))
	}

	var resp searchResponse
	if err := c.getJSON(ctx, "/movies/search", params, &resp); err != nil {
		return nil, err
	}
	if resp.Items != nil {
		return resp.Items, nil
	}
	return resp.Results, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrTitleNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog call %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog decode %s: %w", path, err)
	}
	return nil
}
