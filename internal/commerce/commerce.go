// Package commerce describes the storefront operations the coupon engine
// depends on: coupons that can be created, inspected and deleted, and
// packages whose price can be changed.
package commerce

import (
	"context"
	"errors"
	"slices"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("remote entity not found")
	ErrUnexpectedStatus = errors.New("unexpected remote status")
	ErrMissingID        = errors.New("remote response carries no id")
)

// Storefront is the remote commerce API.
type Storefront interface {
	CreateCoupon(ctx context.Context, spec CouponSpec) (int64, error)
	// DeleteCoupon fails with ErrNotFound when the coupon is already gone.
	DeleteCoupon(ctx context.Context, id int64) error
	// GetCoupon fails with ErrNotFound when the coupon doesn't exist.
	GetCoupon(ctx context.Context, id int64) (Coupon, error)
	UpdatePackagePrice(ctx context.Context, id int64, price decimal.Decimal) error
	ListPackages(ctx context.Context) ([]Package, error)
}

const (
	DiscountTypeValue = "value"
	EffectiveOnCart   = "cart"
	BasketTypeBoth    = "both"
	ApplyEachPackage  = 1
	singleRedeemLimit = 1
)

// CouponSpec is everything needed to create a coupon.
type CouponSpec struct {
	Code                      string
	DiscountType              string
	Amount                    decimal.Decimal // USD
	Percentage                decimal.Decimal
	EffectiveOn               string
	Packages                  []int64
	Categories                []int64
	RedeemUnlimited           bool
	ExpireNever               bool
	ExpireLimit               int64
	ExpireDate                string
	StartDate                 string
	BasketType                string
	Minimum                   decimal.Decimal
	DiscountApplicationMethod int
	UserLimit                 int64
	Username                  string
	Note                      string
}

// NewValueCoupon is a single-use, never-expiring, cart-wide fixed discount
// bound to one storefront user.
func NewValueCoupon(code string, amount decimal.Decimal, username string) CouponSpec {
	return CouponSpec{
		Code:                      code,
		DiscountType:              DiscountTypeValue,
		Amount:                    amount,
		EffectiveOn:               EffectiveOnCart,
		RedeemUnlimited:           false,
		ExpireNever:               true,
		ExpireLimit:               singleRedeemLimit,
		BasketType:                BasketTypeBoth,
		DiscountApplicationMethod: ApplyEachPackage,
		Username:                  username,
	}
}

// Coupon is a coupon as it currently exists on the storefront.
type Coupon struct {
	ID int64
	CouponSpec
}

// Exhausted reports whether the coupon can no longer be redeemed.
func (c Coupon) Exhausted() bool {
	return !c.RedeemUnlimited && c.ExpireLimit <= 0
}

// Reissue returns a spec for a replacement coupon that keeps every attribute
// of c except the discount amount.
func (c Coupon) Reissue(amount decimal.Decimal) CouponSpec {
	spec := c.CouponSpec
	spec.Amount = amount
	spec.Packages = slices.Clone(c.Packages)
	spec.Categories = slices.Clone(c.Categories)

	return spec
}

// Package is a storefront catalog item.
type Package struct {
	ID          int64
	Name        string
	Price       decimal.Decimal
	CustomPrice bool
}
