package money

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yen  int64
		rate string
		want string
	}{
		{name: "exact", yen: 3000, rate: "120", want: "25"},
		{name: "truncates_not_rounds", yen: 1000, rate: "150", want: "6.66"},
		{name: "fractional_rate", yen: 500, rate: "147.83", want: "3.38"},
		{name: "below_one_cent", yen: 1, rate: "150", want: "0"},
		{name: "zero", yen: 0, rate: "150", want: "0"},
		{name: "negative_floors_down", yen: -1000, rate: "150", want: "-6.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Settlement(tt.yen, decimal.RequireFromString(tt.rate))
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "want %s, got %s", tt.want, got)
		})
	}
}

func TestSettlement_StringFormat(t *testing.T) {
	t.Parallel()

	got, err := Settlement(3000, decimal.NewFromInt(120))
	require.NoError(t, err)
	assert.Equal(t, "25.00", got.StringFixed(2))
}

func TestSettlement_RejectsNonPositiveRate(t *testing.T) {
	t.Parallel()

	for _, rate := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := Settlement(1000, rate)
		assert.ErrorIs(t, err, ErrInvalidConvertedAmount)
	}
}

func TestSettlement_NeverExceedsExactQuotient(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))

	for range 1000 {
		yen := rng.Int64N(1_000_000) + 1
		rate := decimal.NewFromInt(rng.Int64N(20_000) + 1).Div(decimal.NewFromInt(100))

		got, err := Settlement(yen, rate)
		require.NoError(t, err)

		// got <= yen/rate  <=>  got*rate <= yen
		assert.True(t, got.Mul(rate).LessThanOrEqual(decimal.NewFromInt(yen)),
			"yen=%d rate=%s got=%s", yen, rate, got)

		// and it is the largest such cent value
		next := got.Add(decimal.New(1, -2))
		assert.True(t, next.Mul(rate).GreaterThan(decimal.NewFromInt(yen)),
			"yen=%d rate=%s got=%s is not the floor", yen, rate, got)

		again, err := Settlement(yen, rate)
		require.NoError(t, err)
		assert.True(t, got.Equal(again), "deterministic")
	}
}
