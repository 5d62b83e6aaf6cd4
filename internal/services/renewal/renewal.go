// Package renewal refreshes the exchange rate and re-prices every tracked
// package and coupon on the storefront.
package renewal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fastprodman/couponsync/internal/alert"
	"github.com/fastprodman/couponsync/internal/commerce"
	"github.com/fastprodman/couponsync/internal/money"
	"github.com/fastprodman/couponsync/internal/rates"
	"github.com/fastprodman/couponsync/internal/repos/coupons"
	"github.com/fastprodman/couponsync/internal/repos/packages"
	"github.com/fastprodman/couponsync/internal/repos/settings"
)

type Deps struct {
	Rates      rates.Source
	Storefront commerce.Storefront
	Settings   settings.Settings
	Packages   packages.Packages
	Ledger     coupons.Coupons
	Alerts     alert.Sink
	// Floor is the lowest accepted rate. Zero means rates.DefaultFloor.
	Floor decimal.Decimal
}

type Engine struct {
	rates    rates.Source
	store    commerce.Storefront
	settings settings.Settings
	packages packages.Packages
	ledger   coupons.Coupons
	alerts   alert.Sink
	floor    decimal.Decimal

	running sync.Mutex
	newID   func() string
	tracer  trace.Tracer
}

func New(d Deps) *Engine {
	floor := d.Floor
	if floor.IsZero() {
		floor = rates.DefaultFloor
	}

	return &Engine{
		rates:    d.Rates,
		store:    d.Storefront,
		settings: d.Settings,
		packages: d.Packages,
		ledger:   d.Ledger,
		alerts:   d.Alerts,
		floor:    floor,
		newID:    uuid.NewString,
		tracer:   otel.Tracer("github.com/fastprodman/couponsync/internal/services/renewal"),
	}
}

// Run performs one renewal pass:
//
// 1) Fetch the rate and check it against the floor.
// 2) Persist it.
// 3) Push a new price for every catalog package.
// 4) Renew every ledger coupon at the new rate.
//
// Any error aborts the run; the returned Report then holds the partial
// counts. Overlapping runs in this process fail with ErrRunInProgress.
func (e *Engine) Run(ctx context.Context) (rep Report, err error) {
	if !e.running.TryLock() {
		return Report{}, ErrRunInProgress
	}
	defer e.running.Unlock()

	rep.RunID = e.newID()
	log := slog.With("run_id", rep.RunID)

	ctx, span := e.tracer.Start(ctx, "renewal.Run", trace.WithAttributes(attribute.String("run_id", rep.RunID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	log.InfoContext(ctx, "renewal started")

	rate, err := e.refreshRate(ctx, log)
	if err != nil {
		return rep, err
	}
	rep.Rate = rate

	err = e.repricePackages(ctx, log, rate, &rep)
	if err != nil {
		return rep, err
	}

	err = e.renewCoupons(ctx, log, rate, &rep)
	if err != nil {
		return rep, err
	}

	log.InfoContext(ctx, "renewal finished",
		"rate", rate.String(),
		"packages_updated", rep.PackagesUpdated,
		"coupons_renewed", rep.CouponsRenewed,
		"coupons_unchanged", rep.CouponsUnchanged,
		"coupons_expired", rep.CouponsExpired,
		"coupons_failed", rep.CouponsFailed,
	)

	return rep, nil
}

func (e *Engine) refreshRate(ctx context.Context, log *slog.Logger) (decimal.Decimal, error) {
	ctx, span := e.tracer.Start(ctx, "renewal.RefreshRate")
	defer span.End()

	rate, err := e.rates.FetchRate(ctx)
	if err != nil {
		return decimal.Decimal{}, e.abort(ctx, log, fmt.Errorf("fetch rate: %w", err))
	}

	err = rates.CheckFloor(rate, e.floor)
	if err != nil {
		return decimal.Decimal{}, e.abort(ctx, log, err)
	}

	err = e.settings.Set(ctx, settings.KeyRateUSDJPY, rate.String())
	if err != nil {
		return decimal.Decimal{}, e.abort(ctx, log, fmt.Errorf("persist rate: %w", err))
	}

	span.SetAttributes(attribute.String("rate", rate.String()))
	log.InfoContext(ctx, "rate refreshed", "rate", rate.String())

	return rate, nil
}

func (e *Engine) repricePackages(ctx context.Context, log *slog.Logger, rate decimal.Decimal, rep *Report) error {
	ctx, span := e.tracer.Start(ctx, "renewal.RepricePackages")
	defer span.End()

	pkgs, err := e.packages.List(ctx)
	if err != nil {
		return e.abort(ctx, log, fmt.Errorf("list packages: %w", err))
	}

	// every price is computed before the first push so a bad one can't leave
	// the catalog half updated
	prices := make([]decimal.Decimal, len(pkgs))
	for i, p := range pkgs {
		prices[i], err = money.Settlement(p.BaseYen, rate)
		if err != nil {
			return e.abort(ctx, log, fmt.Errorf("price package %d: %w", p.RemoteID, err))
		}
	}

	for i, p := range pkgs {
		err = e.store.UpdatePackagePrice(ctx, p.RemoteID, prices[i])
		if err != nil {
			return e.abort(ctx, log, fmt.Errorf("update package %d: %w", p.RemoteID, err))
		}

		rep.PackagesUpdated++
		log.DebugContext(ctx, "package repriced", "package_id", p.RemoteID, "yen", p.BaseYen, "usd", prices[i].StringFixed(2))
	}

	span.SetAttributes(attribute.Int("packages_updated", rep.PackagesUpdated))

	return nil
}

func (e *Engine) renewCoupons(ctx context.Context, log *slog.Logger, rate decimal.Decimal, rep *Report) error {
	ctx, span := e.tracer.Start(ctx, "renewal.RenewCoupons")
	defer span.End()

	rows, err := e.ledger.List(ctx)
	if err != nil {
		return e.abort(ctx, log, fmt.Errorf("list coupons: %w", err))
	}

	for _, row := range rows {
		err = e.renewCoupon(ctx, log.With("coupon_id", row.RemoteID, "code", row.Code), rate, row, rep)
		if err != nil {
			return err
		}
	}

	span.SetAttributes(
		attribute.Int("coupons_renewed", rep.CouponsRenewed),
		attribute.Int("coupons_expired", rep.CouponsExpired),
		attribute.Int("coupons_failed", rep.CouponsFailed),
	)

	return nil
}

func (e *Engine) renewCoupon(ctx context.Context, log *slog.Logger, rate decimal.Decimal, row coupons.Coupon, rep *Report) error {
	usd, err := money.Settlement(row.FaceValue, rate)
	if err != nil {
		return e.abort(ctx, log, fmt.Errorf("price coupon %s: %w", row.Code, err))
	}

	// a zero-value coupon is never issued; the old one stays live untouched
	if !usd.IsPositive() {
		rep.CouponsFailed++
		log.ErrorContext(ctx, "coupon converts to zero, left as is", "yen", row.FaceValue, "rate", rate.String())
		e.alerts.Alert(ctx, fmt.Sprintf(
			"Coupon %s (id %d, %d JPY) converts to %s USD at rate %s and was not renewed.",
			row.Code, row.RemoteID, row.FaceValue, usd.StringFixed(2), rate.String()))

		return nil
	}

	remote, err := e.store.GetCoupon(ctx, row.RemoteID)
	switch {
	case errors.Is(err, commerce.ErrNotFound):
		return e.expire(ctx, log, row, rep)
	case err != nil:
		return e.abort(ctx, log, fmt.Errorf("get coupon %d: %w", row.RemoteID, err))
	case remote.Exhausted():
		return e.expire(ctx, log, row, rep)
	case remote.Amount.Equal(usd):
		rep.CouponsUnchanged++
		return nil
	}

	err = e.store.DeleteCoupon(ctx, row.RemoteID)
	if err != nil && !errors.Is(err, commerce.ErrNotFound) {
		return e.abort(ctx, log, fmt.Errorf("delete coupon %d: %w", row.RemoteID, err))
	}

	err = e.ledger.Delete(ctx, row.RemoteID)
	if err != nil {
		return e.abort(ctx, log, fmt.Errorf(
			"delete ledger row of coupon %d (code %s, %d JPY) after its remote delete: %w",
			row.RemoteID, row.Code, row.FaceValue, err))
	}

	newID, err := e.store.CreateCoupon(ctx, remote.Reissue(usd))
	if err == nil && newID <= 0 {
		err = commerce.ErrMissingID
	}
	if err != nil {
		rep.CouponsFailed++
		log.ErrorContext(ctx, "coupon re-issue failed", "error", err)
		e.alerts.Alert(ctx, fmt.Sprintf(
			"Failed to re-issue coupon %s (was id %d, %d JPY, %s USD). It is no longer on the storefront or in the ledger.\n%v",
			row.Code, row.RemoteID, row.FaceValue, usd.StringFixed(2), err))

		return nil
	}

	err = e.ledger.Insert(ctx, coupons.Coupon{RemoteID: newID, Code: row.Code, FaceValue: row.FaceValue})
	if err != nil {
		return e.abort(ctx, log, fmt.Errorf(
			"insert ledger row for re-issued coupon %d (code %s, %d JPY), it exists on the storefront untracked: %w",
			newID, row.Code, row.FaceValue, err))
	}

	rep.CouponsRenewed++
	log.InfoContext(ctx, "coupon renewed", "new_coupon_id", newID, "yen", row.FaceValue, "usd", usd.StringFixed(2))

	return nil
}

// expire drops the ledger row of a coupon that is gone or spent remotely.
func (e *Engine) expire(ctx context.Context, log *slog.Logger, row coupons.Coupon, rep *Report) error {
	err := e.ledger.Delete(ctx, row.RemoteID)
	if err != nil {
		return e.abort(ctx, log, fmt.Errorf("delete ledger row of spent coupon %d: %w", row.RemoteID, err))
	}

	rep.CouponsExpired++
	log.InfoContext(ctx, "coupon expired", "yen", row.FaceValue)

	return nil
}

func (e *Engine) abort(ctx context.Context, log *slog.Logger, err error) error {
	log.ErrorContext(ctx, "renewal aborted", "error", err)
	e.alerts.Alert(ctx, fmt.Sprintf("Renewal aborted: %v", err))

	return err
}
