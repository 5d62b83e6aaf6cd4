// Package rates supplies the JPY per USD exchange rate the engine prices
// coupons and packages with.
package rates

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNoRateData  = errors.New("rate response carries no rates")
	ErrMissingPair = errors.New("rate response lacks the JPY pair")
	ErrRateTooLow  = errors.New("rate below acceptance floor")
)

// DefaultFloor is the lowest JPY per USD rate accepted for repricing.
var DefaultFloor = decimal.NewFromInt(100)

// Source fetches the latest JPY per USD rate. Implementations return a
// positive rate or one of the errors above.
type Source interface {
	FetchRate(ctx context.Context) (decimal.Decimal, error)
}

// CheckFloor rejects rates strictly below floor.
func CheckFloor(rate, floor decimal.Decimal) error {
	if rate.LessThan(floor) {
		return fmt.Errorf("%w: %s < %s", ErrRateTooLow, rate, floor)
	}

	return nil
}
