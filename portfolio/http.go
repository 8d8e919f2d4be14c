package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient talks to an externally hosted portfolio service over REST,
// built on resty the same way the rest of the engine's outbound adapters
// are: a fixed timeout, bounded retries on transport errors and 5xx
// responses, and no retry on any other status.
type HTTPClient struct {
	http *resty.Client
}

// NewHTTPClient constructs an HTTPClient against baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Accept", "application/json")
	return &HTTPClient{http: c}
}

type positionResponse struct {
	Symbol   string  `json:"symbol"`
	Notional float64 `json:"notional_usd"`
}

func (c *HTTPClient) Position(ctx context.Context, symbol string) (float64, error) {
	var out positionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetResult(&out).
		Get("/positions/{symbol}")
	if err != nil {
		return 0, fmt.Errorf("portfolio: position request failed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("portfolio: position request returned %d", resp.StatusCode())
	}
	return out.Notional, nil
}

func (c *HTTPClient) AllPositions(ctx context.Context) (map[string]float64, error) {
	var out []positionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/positions")
	if err != nil {
		return nil, fmt.Errorf("portfolio: positions request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("portfolio: positions request returned %d", resp.StatusCode())
	}
	result := make(map[string]float64, len(out))
	for _, p := range out {
		result[p.Symbol] = p.Notional
	}
	return result, nil
}

type portfolioValueResponse struct {
	ValueUSD *float64 `json:"value_usd"`
}

func (c *HTTPClient) PortfolioValue(ctx context.Context) (*float64, error) {
	var out portfolioValueResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/portfolio/value")
	if err != nil {
		return nil, fmt.Errorf("portfolio: value request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("portfolio: value request returned %d", resp.StatusCode())
	}
	return out.ValueUSD, nil
}

type pnlResponse struct {
	PnLUSD float64 `json:"pnl_usd"`
}

func (c *HTTPClient) StrategyDailyPnL(ctx context.Context, strategyID string, since time.Time) (float64, error) {
	var out pnlResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("strategy_id", strategyID).
		SetQueryParam("since", since.UTC().Format(time.RFC3339)).
		SetResult(&out).
		Get("/strategies/{strategy_id}/pnl")
	if err != nil {
		return 0, fmt.Errorf("portfolio: strategy pnl request failed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("portfolio: strategy pnl request returned %d", resp.StatusCode())
	}
	return out.PnLUSD, nil
}

func (c *HTTPClient) TotalDailyPnL(ctx context.Context, since time.Time) (float64, error) {
	var out pnlResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("since", since.UTC().Format(time.RFC3339)).
		SetResult(&out).
		Get("/pnl")
	if err != nil {
		return 0, fmt.Errorf("portfolio: total pnl request failed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("portfolio: total pnl request returned %d", resp.StatusCode())
	}
	return out.PnLUSD, nil
}
