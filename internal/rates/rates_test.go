package rates

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCheckFloor(t *testing.T) {
	tests := []struct {
		rate    string
		wantErr bool
	}{
		{"99", true},
		{"99.999", true},
		{"100", false},
		{"100.0001", false},
		{"152.37", false},
	}

	for _, tc := range tests {
		t.Run(tc.rate, func(t *testing.T) {
			err := CheckFloor(decimal.RequireFromString(tc.rate), DefaultFloor)
			if tc.wantErr {
				if !errors.Is(err, ErrRateTooLow) {
					t.Fatalf("expected ErrRateTooLow, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
