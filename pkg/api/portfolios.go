package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pixelfolio/cli/pkg/logger"
)

// ListPortfolios fetches one page of the gallery. Authenticated requests
// get isLikedByUser populated per item.
func (c *Client) ListPortfolios(ctx context.Context, q ListQuery) (*PortfolioListResponse, error) {
	logger.Debug("Fetching portfolios", "page", q.Page, "limit", q.Limit,
		"category", q.Category, "sort", q.SortBy, "search", q.SearchQuery)

	params := map[string]string{}
	if q.Page > 0 {
		params["page"] = strconv.Itoa(q.Page)
	}
	if q.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Limit)
	}
	if q.Category != "" {
		params["category"] = q.Category
	}
	if q.SortBy != "" {
		params["sortBy"] = q.SortBy
	}
	if q.SearchQuery != "" {
		params["searchQuery"] = q.SearchQuery
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/api/portfolios")

	var out PortfolioListResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch portfolios: %w", err)
	}
	for i := range out.Data {
		out.Data[i].normalize()
	}
	return &out, nil
}

// GetPortfolio fetches one portfolio. The backend counts this as a view.
func (c *Client) GetPortfolio(ctx context.Context, id string) (*Portfolio, error) {
	logger.Debug("Fetching portfolio", "portfolio_id", id)

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get("/api/portfolios/{id}")

	var out PortfolioResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch portfolio %s: %w", id, err)
	}
	out.Data.normalize()
	return &out.Data, nil
}

// CreatePortfolio publishes a new portfolio owned by the caller
func (c *Client) CreatePortfolio(ctx context.Context, in PortfolioInput) (*Portfolio, error) {
	logger.Debug("Creating portfolio", "title", in.Title, "category", in.Category)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(in).
		Post("/api/portfolios")

	var out PortfolioResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	out.Data.normalize()
	return &out.Data, nil
}

// UpdatePortfolio replaces an owned portfolio's fields
func (c *Client) UpdatePortfolio(ctx context.Context, id string, in PortfolioInput) (*Portfolio, error) {
	logger.Debug("Updating portfolio", "portfolio_id", id)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("id", id).
		SetBody(in).
		Put("/api/portfolios/{id}")

	var out PortfolioResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("failed to update portfolio %s: %w", id, err)
	}
	out.Data.normalize()
	return &out.Data, nil
}

// DeletePortfolio removes an owned portfolio
func (c *Client) DeletePortfolio(ctx context.Context, id, userID string) error {
	logger.Debug("Deleting portfolio", "portfolio_id", id)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("id", id).
		SetBody(map[string]string{"userId": userID}).
		Delete("/api/portfolios/{id}")

	if err := CheckResponse(resp, err); err != nil {
		return fmt.Errorf("failed to delete portfolio %s: %w", id, err)
	}
	return nil
}

// ToggleLike flips the caller's like on a portfolio and returns the
// server's authoritative count and state
func (c *Client) ToggleLike(ctx context.Context, id string) (*LikeResult, error) {
	logger.Debug("Toggling like", "portfolio_id", id)

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(map[string]interface{}{}).
		Post("/api/portfolios/{id}/like")

	var out LikeResult
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("failed to like/unlike portfolio %s: %w", id, err)
	}
	res := out.normalize()
	return &res, nil
}
