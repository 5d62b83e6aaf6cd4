package renewal

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrRunInProgress = errors.New("renewal run already in progress")

// Report summarizes one run. On abort it holds the counts reached so far.
type Report struct {
	RunID            string          `json:"runId"`
	Rate             decimal.Decimal `json:"rate"`
	PackagesUpdated  int             `json:"packagesUpdated"`
	CouponsRenewed   int             `json:"couponsRenewed"`
	CouponsUnchanged int             `json:"couponsUnchanged"`
	CouponsExpired   int             `json:"couponsExpired"`
	CouponsFailed    int             `json:"couponsFailed"`
}
