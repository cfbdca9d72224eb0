// Package yield derives annualised figures from two chain samples taken
// about 30 days apart.
package yield

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/anchor-autopilot/internal/chain"
	"github.com/web3-frozen/anchor-autopilot/internal/metrics"
	"github.com/web3-frozen/anchor-autopilot/internal/numeric"
	"github.com/web3-frozen/anchor-autopilot/internal/txlog"
)

// ErrDivisionUndefined is returned when a rate or time delta is zero.
var ErrDivisionUndefined = errors.New("division undefined")

const (
	secondsPerYear = 365 * 24 * 60 * 60
	// SampleDistance is ~30 days of 6 second blocks.
	SampleDistance = (30 * 24 * 60 * 60) / 6
)

// HistoricHeight is the height SampleDistance blocks before current.
func HistoricHeight(current uint64) uint64 {
	if current < SampleDistance {
		return 0
	}
	return current - SampleDistance
}

// ComputeAPY annualises the exchange-rate growth between two deposits:
//
//	apy = (current.rate - historic.rate) * (secondsPerYear / Δt) / current.rate
//
// The annualisation factor is computed in float64 and converted once; the
// rest is decimal arithmetic.
func ComputeAPY(current, historic txlog.DepositStableLog) (decimal.Decimal, error) {
	if current.ExchangeRate.IsZero() {
		return decimal.Zero, fmt.Errorf("current exchange rate is zero: %w", ErrDivisionUndefined)
	}
	dt := current.Timestamp - historic.Timestamp
	if dt == 0 {
		return decimal.Zero, fmt.Errorf("samples share a timestamp: %w", ErrDivisionUndefined)
	}
	factor := decimal.NewFromFloat(float64(secondsPerYear) / float64(dt))
	delta := current.ExchangeRate.Sub(historic.ExchangeRate)
	return delta.Mul(factor).Div(current.ExchangeRate), nil
}

// APY is the earn yield together with the deposits it was computed from.
type APY struct {
	APY      decimal.Decimal        `json:"apy"`
	Current  txlog.DepositStableLog `json:"current"`
	Historic txlog.DepositStableLog `json:"historic"`
}

// BlocksPerYear extrapolates the block rate of the last ~30 days.
type BlocksPerYear struct {
	BlocksPerYear  float64 `json:"blocks_per_year"`
	BlocksPerMilli float64 `json:"blocks_per_millis"`
	LatestHeight   uint64  `json:"latest_height"`
	HistoricHeight uint64  `json:"historic_height"`
}

// BlockSource reads block headers.
type BlockSource interface {
	LatestBlock(ctx context.Context) (*chain.Block, error)
	BlockAt(ctx context.Context, height uint64) (*chain.Block, error)
}

// DepositScanner finds stable deposits at or below a height.
type DepositScanner interface {
	ScanDeposits(ctx context.Context, height uint64) (*chain.Response[[]txlog.DepositStableLog], error)
}

// Engine samples the chain for yield figures.
type Engine struct {
	blocks   BlockSource
	deposits DepositScanner
}

func NewEngine(blocks BlockSource, deposits DepositScanner) *Engine {
	return &Engine{blocks: blocks, deposits: deposits}
}

// EarnAPY samples one deposit at the latest height and one SampleDistance
// blocks earlier and annualises the change in their exchange rates. The
// response height is the latest block height.
func (e *Engine) EarnAPY(ctx context.Context) (*chain.Response[APY], error) {
	latest, err := e.latestHeight(ctx)
	if err != nil {
		return nil, err
	}

	current, err := e.deposits.ScanDeposits(ctx, latest)
	if err != nil {
		return nil, fmt.Errorf("current deposit: %w", err)
	}
	historic, err := e.deposits.ScanDeposits(ctx, HistoricHeight(latest))
	if err != nil {
		return nil, fmt.Errorf("historic deposit: %w", err)
	}
	if len(current.Result) == 0 || len(historic.Result) == 0 {
		return nil, fmt.Errorf("earn apy: %w", txlog.ErrNoRecords)
	}

	apy, err := ComputeAPY(current.Result[0], historic.Result[0])
	if err != nil {
		return nil, fmt.Errorf("earn apy: %w", err)
	}
	metrics.EarnAPY.Set(apy.InexactFloat64())
	return &chain.Response[APY]{
		Height: strconv.FormatUint(latest, 10),
		Result: APY{APY: apy, Current: current.Result[0], Historic: historic.Result[0]},
	}, nil
}

// BlocksPerYear compares the latest header with the one SampleDistance
// blocks earlier.
func (e *Engine) BlocksPerYear(ctx context.Context) (*chain.Response[BlocksPerYear], error) {
	latest, err := e.blocks.LatestBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest block: %w", err)
	}
	latestHeight, err := numeric.ParseUint(latest.Block.Header.Height)
	if err != nil {
		return nil, fmt.Errorf("latest block height: %w", err)
	}
	historic, err := e.blocks.BlockAt(ctx, HistoricHeight(latestHeight))
	if err != nil {
		return nil, fmt.Errorf("historic block: %w", err)
	}
	historicHeight, err := numeric.ParseUint(historic.Block.Header.Height)
	if err != nil {
		return nil, fmt.Errorf("historic block height: %w", err)
	}

	millis := latest.Block.Header.Time.Sub(historic.Block.Header.Time).Milliseconds()
	if millis == 0 {
		return nil, fmt.Errorf("blocks per year: %w", ErrDivisionUndefined)
	}
	perMilli := float64(latestHeight-historicHeight) / float64(millis)

	return &chain.Response[BlocksPerYear]{
		Height: strconv.FormatUint(latestHeight, 10),
		Result: BlocksPerYear{
			BlocksPerYear:  perMilli * 1000 * secondsPerYear,
			BlocksPerMilli: perMilli,
			LatestHeight:   latestHeight,
			HistoricHeight: historicHeight,
		},
	}, nil
}

func (e *Engine) latestHeight(ctx context.Context) (uint64, error) {
	b, err := e.blocks.LatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}
	h, err := numeric.ParseUint(b.Block.Header.Height)
	if err != nil {
		return 0, fmt.Errorf("latest block height: %w", err)
	}
	return h, nil
}
