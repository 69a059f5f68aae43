package kalshi

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

type GetMarketsOptions struct {
	Status       string
	Limit        int
	Cursor       string
	SeriesTicker string
}

// GetMarkets fetches one page of markets.
func (c *Client) GetMarkets(ctx context.Context, opts GetMarketsOptions) (*MarketsResponse, error) {
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
	if opts.SeriesTicker != "" {
		query.Set("series_ticker", opts.SeriesTicker)
	}

	var resp MarketsResponse
	if err := c.get(ctx, "/markets", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchAllOpenMarkets pages through open markets until a page comes back
// empty, the cursor runs out, or maxMarkets is reached. Page failures are
// absorbed here: the loop logs, stops and returns whatever was collected so
// a bad page never sinks the whole ingestion cycle.
func (c *Client) FetchAllOpenMarkets(ctx context.Context, maxMarkets int) []Market {
	var all []Market
	cursor := ""
	for len(all) < maxMarkets {
		resp, err := c.GetMarkets(ctx, GetMarketsOptions{Status: "open", Limit: 200, Cursor: cursor})
		if err != nil {
			c.logWarn("market page fetch failed, returning partial results", "/markets", err, zap.Int("collected", len(all)))
			break
		}
		if len(resp.Markets) == 0 {
			break
		}
		all = append(all, resp.Markets...)
		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
		if err := sleepCtx(ctx, c.pageDelay); err != nil {
			break
		}
	}
	if len(all) > maxMarkets {
		all = all[:maxMarkets]
	}
	return all
}

// GetMarket fetches a single market by ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (*Market, error) {
	var resp marketResponse
	if err := c.get(ctx, "/markets/"+url.PathEscape(ticker), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Market, nil
}
