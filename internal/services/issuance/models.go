package issuance

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Submission is an approved payment: the player paid Amount JPY and an
// approver confirmed it.
type Submission struct {
	PlayerHandle string
	ApproverID   string
	// Amount is the raw JPY amount as submitted.
	Amount string
	// IdempotencyKey identifies the approval event. Empty disables
	// duplicate detection.
	IdempotencyKey string
}

type Result struct {
	Code             string
	RemoteID         int64
	SettlementAmount decimal.Decimal // USD
	FaceValue        int64           // JPY
	PlayerID         string
}

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrRateUnavailable     = errors.New("no stored exchange rate")
	ErrRemoteCreateFailed  = errors.New("remote coupon create failed")
	ErrLedgerInsertFailed  = errors.New("ledger insert failed")
	ErrDuplicateSubmission = errors.New("submission already processed")
	// ErrDanglingCoupon accompanies ErrLedgerInsertFailed when the
	// compensating delete failed too.
	ErrDanglingCoupon = errors.New("remote coupon may be left without a ledger row")
)
