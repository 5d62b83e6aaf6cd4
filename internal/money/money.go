// Package money converts JPY amounts to USD at a JPY-per-USD rate.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidConvertedAmount = errors.New("invalid converted amount")

// Settlement converts yen to USD at rate (JPY per USD), truncated to whole
// cents: floor(yen / rate * 100) / 100. The result never exceeds the exact
// quotient. A non-positive rate has no finite result.
func Settlement(yen int64, rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %d JPY at rate %s", ErrInvalidConvertedAmount, yen, rate)
	}

	q, r := decimal.NewFromInt(yen).QuoRem(rate, 2)

	// QuoRem truncates toward zero; floor needs one more cent for negatives
	if r.Sign() < 0 {
		q = q.Sub(decimal.New(1, -2))
	}

	return q, nil
}
