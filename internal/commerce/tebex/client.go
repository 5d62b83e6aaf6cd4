// Package tebex talks to the Tebex plugin API. Every request is paced
// through a shared gateway.Pacer.
package tebex

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/couponsync/internal/commerce"
	"github.com/fastprodman/couponsync/internal/gateway"
)

const (
	secretHeader = "X-Tebex-Secret"
	userAgent    = "couponsync (+https://github.com/fastprodman/couponsync)"
)

var _ commerce.Storefront = (*Client)(nil)

type Client struct {
	http  *resty.Client
	pacer *gateway.Pacer
}

func New(baseURL, secret string, pacer *gateway.Pacer) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader(secretHeader, secret).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &Client{http: rc, pacer: pacer}
}

func (c *Client) CreateCoupon(ctx context.Context, spec commerce.CouponSpec) (int64, error) {
	var (
		out    couponEnvelope
		apiErr apiError
	)

	resp, err := c.do(ctx, func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetBody(toCreateRequest(spec)).
			SetResult(&out).
			SetError(&apiErr).
			Post("/coupons")
	})
	if err != nil {
		return 0, fmt.Errorf("create coupon: %w", err)
	}

	if resp.IsError() {
		return 0, fmt.Errorf("create coupon: %w", statusError(resp, apiErr))
	}

	if out.Data.ID == 0 {
		return 0, fmt.Errorf("create coupon: %w (%s)", commerce.ErrMissingID, apiErr.Message)
	}

	return out.Data.ID, nil
}

func (c *Client) DeleteCoupon(ctx context.Context, id int64) error {
	var apiErr apiError

	resp, err := c.do(ctx, func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetPathParam("id", strconv.FormatInt(id, 10)).
			SetError(&apiErr).
			Delete("/coupons/{id}")
	})
	if err != nil {
		return fmt.Errorf("delete coupon %d: %w", id, err)
	}

	if resp.IsError() {
		return fmt.Errorf("delete coupon %d: %w", id, statusError(resp, apiErr))
	}

	return nil
}

func (c *Client) GetCoupon(ctx context.Context, id int64) (commerce.Coupon, error) {
	var (
		out    couponEnvelope
		apiErr apiError
	)

	resp, err := c.do(ctx, func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetPathParam("id", strconv.FormatInt(id, 10)).
			SetResult(&out).
			SetError(&apiErr).
			Get("/coupons/{id}")
	})
	if err != nil {
		return commerce.Coupon{}, fmt.Errorf("get coupon %d: %w", id, err)
	}

	if resp.IsError() {
		return commerce.Coupon{}, fmt.Errorf("get coupon %d: %w", id, statusError(resp, apiErr))
	}

	// some error paths answer 200 with an empty body
	if out.Data.ID == 0 {
		return commerce.Coupon{}, fmt.Errorf("get coupon %d: %w", id, commerce.ErrNotFound)
	}

	return out.Data.toCoupon(), nil
}

func (c *Client) UpdatePackagePrice(ctx context.Context, id int64, price decimal.Decimal) error {
	var apiErr apiError

	resp, err := c.do(ctx, func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetPathParam("id", strconv.FormatInt(id, 10)).
			SetBody(map[string]any{"price": price.InexactFloat64()}).
			SetError(&apiErr).
			Put("/package/{id}")
	})
	if err != nil {
		return fmt.Errorf("update package %d price: %w", id, err)
	}

	if resp.IsError() {
		return fmt.Errorf("update package %d price: %w", id, statusError(resp, apiErr))
	}

	return nil
}

func (c *Client) ListPackages(ctx context.Context) ([]commerce.Package, error) {
	var (
		out    []packageDTO
		apiErr apiError
	)

	resp, err := c.do(ctx, func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetResult(&out).
			SetError(&apiErr).
			Get("/packages")
	})
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("list packages: %w", statusError(resp, apiErr))
	}

	pkgs := make([]commerce.Package, 0, len(out))
	for _, p := range out {
		pkgs = append(pkgs, commerce.Package{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			CustomPrice: bool(p.CustomPrice),
		})
	}

	return pkgs, nil
}

// do runs one request in its own pacer slot.
func (c *Client) do(ctx context.Context, send func(ctx context.Context) (*resty.Response, error)) (*resty.Response, error) {
	var resp *resty.Response

	err := c.pacer.Do(ctx, func(ctx context.Context) error {
		var err error

		resp, err = send(ctx)

		return err
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func statusError(resp *resty.Response, apiErr apiError) error {
	if resp.StatusCode() == http.StatusNotFound {
		return commerce.ErrNotFound
	}

	if apiErr.Message != "" {
		return fmt.Errorf("%w %d: %s", commerce.ErrUnexpectedStatus, resp.StatusCode(), apiErr.Message)
	}

	return fmt.Errorf("%w %d", commerce.ErrUnexpectedStatus, resp.StatusCode())
}
