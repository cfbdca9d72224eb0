// Package txlog mines the chain's transaction history for the fee, gas and
// amount figures of specific contract actions.
package txlog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrTimeout is returned when the wall-clock budget or the failure
	// threshold is hit before the target record count.
	ErrTimeout = errors.New("timeout")
	// ErrNoRecords is returned when history ran out without a single match.
	ErrNoRecords = errors.New("no matching records")
)

// TxLog is one matching transaction.
type TxLog struct {
	Height    uint64          `json:"height"`
	Timestamp int64           `json:"timestamp"`
	GasWanted decimal.Decimal `json:"gas_wanted"`
	GasUsed   decimal.Decimal `json:"gas_used"`
	Amount    decimal.Decimal `json:"amount"`
	FeeDenom  string          `json:"fee_denom"`
	FeeAmount decimal.Decimal `json:"fee_amount"`
	RawLog    string          `json:"raw_log"`
}

// DepositStableLog is one stablecoin deposit and the aUST exchange rate it
// implies.
type DepositStableLog struct {
	Height        uint64          `json:"height"`
	Timestamp     int64           `json:"timestamp"`
	MintAmount    decimal.Decimal `json:"mint_amount"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
}

// Policy bounds a scan.
type Policy struct {
	// Budget is the wall-clock time a scan may take. It is checked between
	// requests, so a single slow request can overshoot it.
	Budget time.Duration
	// Target is the number of records the paged scan collects.
	Target int
	// DepositTarget is the number of records the block walk collects.
	DepositTarget int
	PageSize      int
	// MaxFailures is the number of consecutive failed requests that ends
	// a scan.
	MaxFailures int
}

// DefaultPolicy is 10 records (1 for the block walk) within 180s, pages of
// 100 and at most 2 consecutive request failures.
func DefaultPolicy() Policy {
	return Policy{
		Budget:        180 * time.Second,
		Target:        10,
		DepositTarget: 1,
		PageSize:      100,
		MaxFailures:   2,
	}
}
