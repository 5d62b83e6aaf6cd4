package settings

import (
	"context"
	"errors"
)

// KeyRateUSDJPY holds the last accepted JPY-per-USD rate.
const KeyRateUSDJPY = "rate_usd_jpy"

var ErrSettingNotFound = errors.New("setting not found")

// Settings is a durable key/value store. Writes are last-write-wins.
type Settings interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
