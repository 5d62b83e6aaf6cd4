package coupons

import (
	"context"
	"errors"
)

var (
	ErrDuplicateCode = errors.New("duplicate coupon code")
	ErrDuplicateID   = errors.New("duplicate coupon remote id")
)

// Coupon is a ledger row: the storefront coupon currently bound to Code.
// FaceValue is the JPY amount the coupon was paid with and never changes
// across renewals.
type Coupon struct {
	RemoteID  int64
	Code      string
	FaceValue int64
}

// Coupons is the coupon ledger.
type Coupons interface {
	Insert(ctx context.Context, c Coupon) error
	Delete(ctx context.Context, remoteID int64) error
	List(ctx context.Context) ([]Coupon, error)
}
