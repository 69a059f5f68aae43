package kalshi

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

type GetEventsOptions struct {
	Status string
	Limit  int
	Cursor string
}

// GetEvents fetches one page of events.
func (c *Client) GetEvents(ctx context.Context, opts GetEventsOptions) (*EventsResponse, error) {
	query := url.Values{}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}

	var resp EventsResponse
	if err := c.get(ctx, "/events", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchAllOpenEvents pages through open events with the same termination and
// partial-result rules as FetchAllOpenMarkets.
func (c *Client) FetchAllOpenEvents(ctx context.Context, maxEvents int) []Event {
	var all []Event
	cursor := ""
	for len(all) < maxEvents {
		resp, err := c.GetEvents(ctx, GetEventsOptions{Status: "open", Limit: 200, Cursor: cursor})
		if err != nil {
			c.logWarn("event page fetch failed, returning partial results", "/events", err, zap.Int("collected", len(all)))
			break
		}
		if len(resp.Events) == 0 {
			break
		}
		all = append(all, resp.Events...)
		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
		if err := sleepCtx(ctx, c.pageDelay); err != nil {
			break
		}
	}
	if len(all) > maxEvents {
		all = all[:maxEvents]
	}
	return all
}

// GetEvent fetches a single event by ticker.
func (c *Client) GetEvent(ctx context.Context, eventTicker string) (*Event, error) {
	var resp eventResponse
	if err := c.get(ctx, "/events/"+url.PathEscape(eventTicker), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Event, nil
}

// GetSeries fetches a single series by ticker.
func (c *Client) GetSeries(ctx context.Context, seriesTicker string) (*Series, error) {
	var resp seriesResponse
	if err := c.get(ctx, "/series/"+url.PathEscape(seriesTicker), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Series, nil
}
