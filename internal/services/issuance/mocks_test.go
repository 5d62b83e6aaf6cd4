package issuance

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/fastprodman/couponsync/internal/commerce"
	"github.com/fastprodman/couponsync/internal/repos/coupons"
)

type storefrontMock struct{ mock.Mock }

func (m *storefrontMock) CreateCoupon(ctx context.Context, spec commerce.CouponSpec) (int64, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).(int64), args.Error(1)
}

func (m *storefrontMock) DeleteCoupon(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *storefrontMock) GetCoupon(ctx context.Context, id int64) (commerce.Coupon, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(commerce.Coupon), args.Error(1)
}

func (m *storefrontMock) UpdatePackagePrice(ctx context.Context, id int64, price decimal.Decimal) error {
	return m.Called(ctx, id, price).Error(0)
}

func (m *storefrontMock) ListPackages(ctx context.Context) ([]commerce.Package, error) {
	args := m.Called(ctx)
	return args.Get(0).([]commerce.Package), args.Error(1)
}

type ledgerMock struct{ mock.Mock }

func (m *ledgerMock) Insert(ctx context.Context, c coupons.Coupon) error {
	return m.Called(ctx, c).Error(0)
}

func (m *ledgerMock) Delete(ctx context.Context, remoteID int64) error {
	return m.Called(ctx, remoteID).Error(0)
}

func (m *ledgerMock) List(ctx context.Context) ([]coupons.Coupon, error) {
	args := m.Called(ctx)
	return args.Get(0).([]coupons.Coupon), args.Error(1)
}

type settingsMock struct{ mock.Mock }

func (m *settingsMock) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *settingsMock) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

type keysMock struct{ mock.Mock }

func (m *keysMock) Claim(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *keysMock) Complete(ctx context.Context, key, code string) error {
	return m.Called(ctx, key, code).Error(0)
}

func (m *keysMock) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type resolverMock struct{ mock.Mock }

func (m *resolverMock) Resolve(ctx context.Context, handle string) (string, error) {
	args := m.Called(ctx, handle)
	return args.String(0), args.Error(1)
}

type alertRecorder struct {
	mu    sync.Mutex
	texts []string
}

func (a *alertRecorder) Alert(_ context.Context, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.texts = append(a.texts, text)
}

func (a *alertRecorder) Texts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.texts...)
}
