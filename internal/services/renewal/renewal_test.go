package renewal

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/couponsync/internal/commerce/tebex"
	"github.com/fastprodman/couponsync/internal/commerce/tebextest"
	"github.com/fastprodman/couponsync/internal/gateway"
	"github.com/fastprodman/couponsync/internal/rates"
	"github.com/fastprodman/couponsync/internal/repos/coupons"
	"github.com/fastprodman/couponsync/internal/repos/packages"
	"github.com/fastprodman/couponsync/internal/repos/settings"
)

type harness struct {
	srv      *tebextest.Server
	settings *memSettings
	packages *memPackages
	ledger   *memLedger
	alerts   *alertRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	srv := tebextest.NewServer()
	t.Cleanup(srv.Close)

	return &harness{
		srv:      srv,
		settings: &memSettings{},
		packages: &memPackages{},
		ledger:   newLedger(),
		alerts:   &alertRecorder{},
	}
}

func (h *harness) engine(src rates.Source) *Engine {
	return New(Deps{
		Rates:      src,
		Storefront: tebex.New(h.srv.URL, tebextest.Secret, gateway.New(0, time.Second)),
		Settings:   h.settings,
		Packages:   h.packages,
		Ledger:     h.ledger,
		Alerts:     h.alerts,
	})
}

func activeCoupon(id int64, code string, usd float64) tebextest.Coupon {
	c := tebextest.Coupon{ID: id, Code: code, BasketType: "both", Username: "player-" + code, Note: "gift"}
	c.Effective.Type = "cart"
	c.Discount.Type = "value"
	c.Discount.Value = usd
	c.Expire.RedeemUnlimited = "false"
	c.Expire.ExpireNever = "true"
	c.Expire.Limit = 1

	return c
}

func exhaustedCoupon(id int64, code string) tebextest.Coupon {
	c := activeCoupon(id, code, 10)
	c.Expire.Limit = 0

	return c
}

func TestRun_RateFloor(t *testing.T) {
	tests := []struct {
		rate    string
		wantErr bool
	}{
		{rate: "99", wantErr: true},
		{rate: "99.99", wantErr: true},
		{rate: "100", wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.rate, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.engine(fixedRate(tc.rate)).Run(t.Context())
			_, getErr := h.settings.Get(t.Context(), settings.KeyRateUSDJPY)

			if tc.wantErr {
				require.ErrorIs(t, err, rates.ErrRateTooLow)
				require.ErrorIs(t, getErr, settings.ErrSettingNotFound)
				assert.Len(t, h.alerts.Texts(), 1)
				return
			}

			require.NoError(t, err)
			require.NoError(t, getErr)
			assert.Empty(t, h.alerts.Texts())
		})
	}
}

func TestRun_FetchFailureAbortsWithoutMutation(t *testing.T) {
	h := newHarness(t)
	h.packages.rows = []packages.Package{{RemoteID: 1001, BaseYen: 3000}}
	h.srv.PutPackage(tebextest.Package{ID: 1001, Price: 25})

	src := rateFunc(func(context.Context) (decimal.Decimal, error) {
		return decimal.Decimal{}, rates.ErrMissingPair
	})

	_, err := h.engine(src).Run(t.Context())
	require.ErrorIs(t, err, rates.ErrMissingPair)
	assert.Empty(t, h.srv.Calls())
	assert.Len(t, h.alerts.Texts(), 1)
}

func TestRun_Full(t *testing.T) {
	h := newHarness(t)
	h.packages.rows = []packages.Package{{RemoteID: 1001, BaseYen: 3000}, {RemoteID: 1002, BaseYen: 500}}
	h.srv.PutPackage(tebextest.Package{ID: 1001, Price: 25})
	h.srv.PutPackage(tebextest.Package{ID: 1002, Price: 4})

	h.srv.PutCoupon(activeCoupon(1, "ACTIVECODE11111", 25))
	h.srv.PutCoupon(exhaustedCoupon(2, "SPENTCODE222222"))
	h.ledger = newLedger(
		coupons.Coupon{RemoteID: 1, Code: "ACTIVECODE11111", FaceValue: 3000},
		coupons.Coupon{RemoteID: 2, Code: "SPENTCODE222222", FaceValue: 1000},
		coupons.Coupon{RemoteID: 3, Code: "GONECODE3333333", FaceValue: 2000},
	)

	rep, err := h.engine(fixedRate("150")).Run(t.Context())
	require.NoError(t, err)

	assert.NotEmpty(t, rep.RunID)
	assert.True(t, rep.Rate.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 2, rep.PackagesUpdated)
	assert.Equal(t, 1, rep.CouponsRenewed)
	assert.Equal(t, 2, rep.CouponsExpired)
	assert.Zero(t, rep.CouponsFailed)

	stored, _ := h.settings.Get(t.Context(), settings.KeyRateUSDJPY)
	assert.Equal(t, "150", stored)

	p, _ := h.srv.Package(1001)
	assert.InDelta(t, 20.0, p.Price, 1e-9)
	p, _ = h.srv.Package(1002)
	assert.InDelta(t, 3.33, p.Price, 1e-9)

	rows, _ := h.ledger.List(t.Context())
	require.Len(t, rows, 1)
	assert.Equal(t, "ACTIVECODE11111", rows[0].Code)
	assert.Equal(t, int64(3000), rows[0].FaceValue)
	assert.NotEqual(t, int64(1), rows[0].RemoteID)

	_, ok := h.srv.Coupon(1)
	assert.False(t, ok)

	renewed, ok := h.srv.Coupon(rows[0].RemoteID)
	require.True(t, ok)
	assert.Equal(t, "ACTIVECODE11111", renewed.Code)
	assert.InDelta(t, 20.0, renewed.Discount.Value, 1e-9)
	assert.Equal(t, "player-ACTIVECODE11111", renewed.Username)
	assert.Equal(t, "gift", renewed.Note)
	assert.Equal(t, "both", renewed.BasketType)
	assert.Equal(t, int64(1), renewed.Expire.Limit)

	// the spent coupon is only dropped from the ledger
	_, ok = h.srv.Coupon(2)
	assert.True(t, ok)
	assert.Len(t, h.srv.CallsTo("DELETE /coupons/{id}"), 1)
	assert.Len(t, h.srv.CallsTo("POST /coupons"), 1)
	assert.Empty(t, h.alerts.Texts())
}

func TestRun_ExhaustedCouponOnlyDropsRow(t *testing.T) {
	h := newHarness(t)
	h.srv.PutCoupon(exhaustedCoupon(7, "SPENTCODE777777"))
	h.ledger = newLedger(coupons.Coupon{RemoteID: 7, Code: "SPENTCODE777777", FaceValue: 1000})

	rep, err := h.engine(fixedRate("120")).Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.CouponsExpired)

	rows, _ := h.ledger.List(t.Context())
	assert.Empty(t, rows)
	assert.Empty(t, h.srv.CallsTo("DELETE /coupons/{id}"))
	assert.Empty(t, h.srv.CallsTo("POST /coupons"))
}

func TestRun_SecondRunIsNoop(t *testing.T) {
	h := newHarness(t)
	h.packages.rows = []packages.Package{{RemoteID: 1001, BaseYen: 3000}}
	h.srv.PutPackage(tebextest.Package{ID: 1001, Price: 25})
	h.srv.PutCoupon(activeCoupon(1, "ACTIVECODE11111", 25))
	h.ledger = newLedger(coupons.Coupon{RemoteID: 1, Code: "ACTIVECODE11111", FaceValue: 3000})

	e := h.engine(fixedRate("150"))

	first, err := e.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, first.CouponsRenewed)

	before, _ := h.ledger.List(t.Context())
	price, _ := h.srv.Package(1001)

	second, err := e.Run(t.Context())
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Zero(t, second.CouponsRenewed)
	assert.Equal(t, 1, second.CouponsUnchanged)

	after, _ := h.ledger.List(t.Context())
	assert.Equal(t, before, after)

	again, _ := h.srv.Package(1001)
	assert.Equal(t, price.Price, again.Price)

	assert.Len(t, h.srv.CallsTo("POST /coupons"), 1)
	assert.Len(t, h.srv.CallsTo("DELETE /coupons/{id}"), 1)
}

func TestRun_ReissueFailureContinues(t *testing.T) {
	h := newHarness(t)
	h.srv.PutCoupon(activeCoupon(1, "FIRSTCODE111111", 25))
	h.srv.PutCoupon(activeCoupon(2, "SECONDCODE22222", 25))
	h.ledger = newLedger(
		coupons.Coupon{RemoteID: 1, Code: "FIRSTCODE111111", FaceValue: 3000},
		coupons.Coupon{RemoteID: 2, Code: "SECONDCODE22222", FaceValue: 3000},
	)
	h.srv.Fail("POST /coupons", http.StatusInternalServerError)

	rep, err := h.engine(fixedRate("150")).Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.CouponsFailed)
	assert.Equal(t, 1, rep.CouponsRenewed)

	rows, _ := h.ledger.List(t.Context())
	require.Len(t, rows, 1)
	assert.Equal(t, "SECONDCODE22222", rows[0].Code)

	texts := h.alerts.Texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "FIRSTCODE111111")
}

func TestRun_ZeroSettlementLeavesCouponAlone(t *testing.T) {
	h := newHarness(t)
	h.srv.PutCoupon(activeCoupon(1, "TINYCODE1111111", 0.01))
	h.srv.PutCoupon(activeCoupon(2, "SECONDCODE22222", 25))
	h.ledger = newLedger(
		coupons.Coupon{RemoteID: 1, Code: "TINYCODE1111111", FaceValue: 1},
		coupons.Coupon{RemoteID: 2, Code: "SECONDCODE22222", FaceValue: 3000},
	)

	// 1 JPY at 150 truncates to 0.00 USD
	rep, err := h.engine(fixedRate("150")).Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.CouponsFailed)
	assert.Equal(t, 1, rep.CouponsRenewed)

	remote, ok := h.srv.Coupon(1)
	require.True(t, ok, "zero-value coupon must stay on the storefront")
	assert.InDelta(t, 0.01, remote.Discount.Value, 1e-9)

	rows, _ := h.ledger.List(t.Context())
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].RemoteID)

	// only the second coupon was replaced
	assert.Len(t, h.srv.CallsTo("DELETE /coupons/{id}"), 1)
	assert.Len(t, h.srv.CallsTo("POST /coupons"), 1)

	texts := h.alerts.Texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "TINYCODE1111111")
}

func TestRun_RemoteDeleteFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.srv.PutCoupon(activeCoupon(1, "FIRSTCODE111111", 25))
	h.ledger = newLedger(coupons.Coupon{RemoteID: 1, Code: "FIRSTCODE111111", FaceValue: 3000})
	h.srv.Fail("DELETE /coupons/{id}", http.StatusInternalServerError)

	_, err := h.engine(fixedRate("150")).Run(t.Context())
	require.Error(t, err)

	rows, _ := h.ledger.List(t.Context())
	assert.Len(t, rows, 1)
	assert.Empty(t, h.srv.CallsTo("POST /coupons"))
	assert.Len(t, h.alerts.Texts(), 1)
}

func TestRun_PackageUpdateFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.packages.rows = []packages.Package{{RemoteID: 1001, BaseYen: 3000}, {RemoteID: 1002, BaseYen: 500}}
	h.srv.PutPackage(tebextest.Package{ID: 1001, Price: 25})
	h.srv.PutPackage(tebextest.Package{ID: 1002, Price: 4})
	h.srv.PutCoupon(activeCoupon(1, "FIRSTCODE111111", 25))
	h.ledger = newLedger(coupons.Coupon{RemoteID: 1, Code: "FIRSTCODE111111", FaceValue: 3000})
	h.srv.Fail("PUT /package/{id}", http.StatusBadRequest)

	rep, err := h.engine(fixedRate("150")).Run(t.Context())
	require.Error(t, err)
	assert.Zero(t, rep.PackagesUpdated)
	assert.Empty(t, h.srv.CallsTo("GET /coupons/{id}"))
	assert.Len(t, h.alerts.Texts(), 1)
}

func TestRun_LedgerInsertFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.srv.PutCoupon(activeCoupon(1, "FIRSTCODE111111", 25))
	h.srv.PutCoupon(activeCoupon(2, "SECONDCODE22222", 25))
	h.ledger = newLedger(
		coupons.Coupon{RemoteID: 1, Code: "FIRSTCODE111111", FaceValue: 3000},
		coupons.Coupon{RemoteID: 2, Code: "SECONDCODE22222", FaceValue: 3000},
	)
	h.ledger.failInsert = true

	_, err := h.engine(fixedRate("150")).Run(t.Context())
	require.ErrorIs(t, err, errInjected)

	texts := h.alerts.Texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "untracked")
	// the second coupon is left alone
	assert.Len(t, h.srv.CallsTo("GET /coupons/{id}"), 1)
}

func TestRun_Overlap(t *testing.T) {
	h := newHarness(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	src := rateFunc(func(context.Context) (decimal.Decimal, error) {
		close(entered)
		<-release
		return decimal.NewFromInt(150), nil
	})
	e := h.engine(src)

	done := make(chan error, 1)
	go func() {
		_, err := e.Run(context.Background())
		done <- err
	}()

	<-entered
	_, err := e.Run(t.Context())
	require.True(t, errors.Is(err, ErrRunInProgress), "got %v", err)

	close(release)
	require.NoError(t, <-done)
}
