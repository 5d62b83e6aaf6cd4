package issuances

import (
	"context"
	"errors"
)

var ErrKeyClaimed = errors.New("issuance key already claimed")

// Keys records idempotency tokens of approval events so a redelivered event
// can't issue a second coupon.
type Keys interface {
	// Claim reserves key. It fails with ErrKeyClaimed when the key exists.
	Claim(ctx context.Context, key string) error
	// Complete attaches the issued coupon code to a claimed key.
	Complete(ctx context.Context, key, code string) error
	// Release drops a claim so the event may be retried.
	Release(ctx context.Context, key string) error
}
