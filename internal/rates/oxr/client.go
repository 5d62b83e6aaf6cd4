// Package oxr reads the latest USD based rates from Open Exchange Rates.
package oxr

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/couponsync/internal/rates"
)

const (
	DefaultBaseURL = "https://openexchangerates.org"
	pair           = "JPY"
)

var _ rates.Source = (*Client)(nil)

type Client struct {
	http  *resty.Client
	appID string
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

type errorResponse struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// New builds a client. The timeout bounds each fetch.
func New(baseURL, appID string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: rc, appID: appID}
}

func (c *Client) FetchRate(ctx context.Context) (decimal.Decimal, error) {
	var (
		out    latestResponse
		apiErr errorResponse
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"app_id":           c.appID,
			"prettyprint":      "false",
			"show_alternative": "false",
		}).
		SetResult(&out).
		SetError(&apiErr).
		Get("/api/latest.json")
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("fetch latest rates: %w", err)
	}

	if resp.IsError() {
		return decimal.Decimal{}, fmt.Errorf("fetch latest rates: status %d: %s", resp.StatusCode(), apiErr.Description)
	}

	if len(out.Rates) == 0 {
		return decimal.Decimal{}, rates.ErrNoRateData
	}

	rate, ok := out.Rates[pair]
	if !ok || !rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s=%s", rates.ErrMissingPair, pair, rate)
	}

	return rate, nil
}
