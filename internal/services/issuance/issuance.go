// Package issuance turns an approved payment into a storefront coupon and a
// matching ledger row, undoing the remote side when the ledger write fails.
package issuance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fastprodman/couponsync/internal/alert"
	"github.com/fastprodman/couponsync/internal/commerce"
	"github.com/fastprodman/couponsync/internal/money"
	"github.com/fastprodman/couponsync/internal/players"
	"github.com/fastprodman/couponsync/internal/repos/coupons"
	"github.com/fastprodman/couponsync/internal/repos/issuances"
	"github.com/fastprodman/couponsync/internal/repos/settings"
)

type Deps struct {
	Storefront commerce.Storefront
	Ledger     coupons.Coupons
	Settings   settings.Settings
	Keys       issuances.Keys
	Players    players.Resolver
	Alerts     alert.Sink
}

type Service struct {
	store    commerce.Storefront
	ledger   coupons.Coupons
	settings settings.Settings
	keys     issuances.Keys
	players  players.Resolver
	alerts   alert.Sink

	newCode func() (string, error)
	tracer  trace.Tracer
}

func New(d Deps) *Service {
	return &Service{
		store:    d.Storefront,
		ledger:   d.Ledger,
		settings: d.Settings,
		keys:     d.Keys,
		players:  d.Players,
		alerts:   d.Alerts,
		newCode:  GenerateCode,
		tracer:   otel.Tracer("github.com/fastprodman/couponsync/internal/services/issuance"),
	}
}

// Issue runs the issuance saga:
//
// 1) Claim the idempotency key, if any.
// 2) Validate the amount and convert it at the stored rate.
// 3) Resolve the player.
// 4) Create the remote coupon.
// 5) Insert the ledger row, deleting the remote coupon once if that fails.
func (s *Service) Issue(ctx context.Context, sub Submission) (res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "issuance.Issue", trace.WithAttributes(
		attribute.String("player", sub.PlayerHandle),
		attribute.String("approver", sub.ApproverID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	key := strings.TrimSpace(sub.IdempotencyKey)
	if key != "" {
		err = s.keys.Claim(ctx, key)
		if err != nil {
			if errors.Is(err, issuances.ErrKeyClaimed) {
				return Result{}, fmt.Errorf("%w: key %q", ErrDuplicateSubmission, key)
			}

			return Result{}, fmt.Errorf("claim issuance key: %w", err)
		}

		defer func() {
			// a dangling remote coupon keeps its claim so a retry can't add another
			if err == nil || errors.Is(err, ErrDanglingCoupon) {
				return
			}

			relErr := s.keys.Release(context.WithoutCancel(ctx), key)
			if relErr != nil {
				slog.ErrorContext(ctx, "release issuance key failed", "key", key, "error", relErr)
			}
		}()
	}

	res, err = s.issue(ctx, sub)
	if err != nil {
		return Result{}, err
	}

	if key != "" {
		cerr := s.keys.Complete(ctx, key, res.Code)
		if cerr != nil {
			// the coupon exists; the claim alone still blocks duplicates
			slog.ErrorContext(ctx, "complete issuance key failed", "key", key, "code", res.Code, "error", cerr)
		}
	}

	slog.InfoContext(ctx, "coupon issued",
		"player", sub.PlayerHandle,
		"player_id", res.PlayerID,
		"approver", sub.ApproverID,
		"code", res.Code,
		"coupon_id", res.RemoteID,
		"yen", res.FaceValue,
		"usd", res.SettlementAmount.StringFixed(2),
	)

	return res, nil
}

func (s *Service) issue(ctx context.Context, sub Submission) (Result, error) {
	yen, err := ParseAmount(sub.Amount)
	if err != nil {
		return Result{}, err
	}

	rate, err := s.currentRate(ctx)
	if err != nil {
		return Result{}, err
	}

	usd, err := money.Settlement(yen, rate)
	if err != nil {
		return Result{}, fmt.Errorf("convert amount: %w", err)
	}

	if !usd.IsPositive() {
		return Result{}, fmt.Errorf("convert amount: %w: %d JPY is %s USD", money.ErrInvalidConvertedAmount, yen, usd.StringFixed(2))
	}

	playerID, err := s.players.Resolve(ctx, sub.PlayerHandle)
	if err != nil {
		return Result{}, fmt.Errorf("resolve player: %w", err)
	}

	code, err := s.newCode()
	if err != nil {
		return Result{}, fmt.Errorf("generate code: %w", err)
	}

	remoteID, err := s.createRemote(ctx, commerce.NewValueCoupon(code, usd, playerID))
	if err != nil {
		return Result{}, err
	}

	err = s.insertLedger(ctx, coupons.Coupon{RemoteID: remoteID, Code: code, FaceValue: yen})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Code:             code,
		RemoteID:         remoteID,
		SettlementAmount: usd,
		FaceValue:        yen,
		PlayerID:         playerID,
	}, nil
}

// ParseAmount reads a positive whole JPY amount.
func ParseAmount(raw string) (int64, error) {
	yen, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	if yen <= 0 {
		return 0, fmt.Errorf("%w: %d must be positive", ErrInvalidAmount, yen)
	}

	return yen, nil
}

func (s *Service) currentRate(ctx context.Context) (decimal.Decimal, error) {
	raw, err := s.settings.Get(ctx, settings.KeyRateUSDJPY)
	if err != nil {
		if errors.Is(err, settings.ErrSettingNotFound) {
			return decimal.Decimal{}, ErrRateUnavailable
		}

		return decimal.Decimal{}, fmt.Errorf("read rate: %w", err)
	}

	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: stored value %q: %w", ErrRateUnavailable, raw, err)
	}

	return rate, nil
}

func (s *Service) createRemote(ctx context.Context, spec commerce.CouponSpec) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "issuance.CreateCoupon")
	defer span.End()

	id, err := s.store.CreateCoupon(ctx, spec)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("%w: %w", ErrRemoteCreateFailed, err)
	}

	if id <= 0 {
		return 0, fmt.Errorf("%w: %w", ErrRemoteCreateFailed, commerce.ErrMissingID)
	}

	span.SetAttributes(attribute.Int64("coupon_id", id))

	return id, nil
}

func (s *Service) insertLedger(ctx context.Context, c coupons.Coupon) error {
	ctx, span := s.tracer.Start(ctx, "issuance.InsertLedger")
	defer span.End()

	err := s.ledger.Insert(ctx, c)
	if err == nil {
		return nil
	}

	span.RecordError(err)
	insertErr := fmt.Errorf("%w: %w", ErrLedgerInsertFailed, err)

	slog.ErrorContext(ctx, "ledger insert failed, deleting remote coupon",
		"coupon_id", c.RemoteID,
		"code", c.Code,
		"yen", c.FaceValue,
		"error", err,
	)

	// the caller may be gone by now; the remote coupon still has to go
	delErr := s.store.DeleteCoupon(context.WithoutCancel(ctx), c.RemoteID)
	if delErr == nil || errors.Is(delErr, commerce.ErrNotFound) {
		return insertErr
	}

	slog.ErrorContext(ctx, "compensating delete failed",
		"coupon_id", c.RemoteID,
		"code", c.Code,
		"yen", c.FaceValue,
		"error", delErr,
	)
	s.alerts.Alert(ctx, fmt.Sprintf(
		"Failed to delete coupon id %d (code: %s, amount: %d JPY) after the ledger insert failed. "+
			"It may still be redeemable on the storefront and must be removed by hand.\nledger: %v\ndelete: %v",
		c.RemoteID, c.Code, c.FaceValue, err, delErr,
	))

	return fmt.Errorf("%w (%w: %w)", insertErr, ErrDanglingCoupon, delErr)
}
