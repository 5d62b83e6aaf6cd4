package renewal

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/couponsync/internal/repos/coupons"
	"github.com/fastprodman/couponsync/internal/repos/packages"
	"github.com/fastprodman/couponsync/internal/repos/settings"
)

type rateFunc func(ctx context.Context) (decimal.Decimal, error)

func (f rateFunc) FetchRate(ctx context.Context) (decimal.Decimal, error) { return f(ctx) }

func fixedRate(s string) rateFunc {
	return func(context.Context) (decimal.Decimal, error) {
		return decimal.RequireFromString(s), nil
	}
}

type memSettings struct {
	mu   sync.Mutex
	vals map[string]string
}

func (m *memSettings) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.vals[key]
	if !ok {
		return "", settings.ErrSettingNotFound
	}

	return v, nil
}

func (m *memSettings) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.vals == nil {
		m.vals = map[string]string{}
	}
	m.vals[key] = value

	return nil
}

type memPackages struct {
	rows []packages.Package
}

func (m *memPackages) InsertNew(_ context.Context, ps []packages.Package) (int, error) {
	var added int
	for _, p := range ps {
		tracked := slices.ContainsFunc(m.rows, func(r packages.Package) bool { return r.RemoteID == p.RemoteID })
		if !tracked {
			m.rows = append(m.rows, p)
			added++
		}
	}
	return added, nil
}

func (m *memPackages) List(context.Context) ([]packages.Package, error) {
	return slices.Clone(m.rows), nil
}

var errInjected = errors.New("injected store failure")

type memLedger struct {
	mu         sync.Mutex
	rows       map[int64]coupons.Coupon
	failInsert bool
}

func newLedger(rows ...coupons.Coupon) *memLedger {
	l := &memLedger{rows: map[int64]coupons.Coupon{}}
	for _, r := range rows {
		l.rows[r.RemoteID] = r
	}

	return l
}

func (l *memLedger) Insert(_ context.Context, c coupons.Coupon) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failInsert {
		return errInjected
	}

	for _, r := range l.rows {
		if r.Code == c.Code {
			return coupons.ErrDuplicateCode
		}
	}
	l.rows[c.RemoteID] = c

	return nil
}

func (l *memLedger) Delete(_ context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.rows, id)

	return nil
}

func (l *memLedger) List(context.Context) ([]coupons.Coupon, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]coupons.Coupon, 0, len(l.rows))
	for _, r := range l.rows {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b coupons.Coupon) int { return int(a.RemoteID - b.RemoteID) })

	return out, nil
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
