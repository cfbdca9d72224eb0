package txlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jonboulle/clockwork"

	"github.com/web3-frozen/anchor-autopilot/internal/chain"
	"github.com/web3-frozen/anchor-autopilot/internal/contract"
	"github.com/web3-frozen/anchor-autopilot/internal/metrics"
	"github.com/web3-frozen/anchor-autopilot/internal/numeric"
)

// Source is the history API the scanner pages through.
type Source interface {
	Txs(ctx context.Context, account, offset string, limit int) (*chain.TxPage, error)
	BlockTxs(ctx context.Context, height uint64, offset, limit int) (*chain.BlockTxs, error)
}

// Scanner collects the most recent executions of an action.
type Scanner struct {
	src       Source
	contracts contract.Resolver
	clock     clockwork.Clock
	policy    Policy
	feeDenom  string
	logger    *slog.Logger
}

// NewScanner creates a scanner. Records are kept only when their fee was
// paid in feeDenom.
func NewScanner(src Source, contracts contract.Resolver, clock clockwork.Clock, policy Policy, feeDenom string, logger *slog.Logger) *Scanner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scanner{
		src:       src,
		contracts: contracts,
		clock:     clock,
		policy:    policy,
		feeDenom:  feeDenom,
		logger:    logger,
	}
}

// Policy returns the scanner's bounds.
func (s *Scanner) Policy() Policy { return s.policy }

// Scan pages backwards through the history of the action's contract and
// returns up to Target matching records, newest first. The response height
// is the height of the newest record.
//
// It stops with the records found so far when the history is exhausted,
// and fails with ErrTimeout when the budget or the consecutive failure
// threshold is hit first.
func (s *Scanner) Scan(ctx context.Context, action Action) (*chain.Response[[]TxLog], error) {
	addr, err := s.contracts.Resolve(action.contract.Protocol, action.contract.Name)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", action, err)
	}

	var (
		start    = s.clock.Now()
		offset   = "0"
		failures int
		logs     []TxLog
	)

	for len(logs) < s.policy.Target {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.clock.Since(start) >= s.policy.Budget || failures >= s.policy.MaxFailures {
			metrics.ScanResultsTotal.WithLabelValues(action.name, "timeout").Inc()
			return nil, fmt.Errorf("scan %s: %d of %d records after %d failures: %w",
				action, len(logs), s.policy.Target, failures, ErrTimeout)
		}

		page, err := s.src.Txs(ctx, addr, offset, s.policy.PageSize)
		if err != nil {
			failures++
			metrics.ScanRequestsTotal.WithLabelValues(action.name, "error").Inc()
			s.logger.Debug("tx history request failed", "action", action.name, "offset", offset, "failures", failures, "error", err)
			continue
		}
		failures = 0
		metrics.ScanRequestsTotal.WithLabelValues(action.name, "ok").Inc()

		for _, raw := range page.Txs {
			rec, err := extractTx(raw, addr, action, s.feeDenom)
			if err != nil {
				if !errors.Is(err, errSkip) {
					s.logger.Debug("skipping tx", "action", action.name, "error", err)
				}
				continue
			}
			logs = append(logs, rec)
			if len(logs) == s.policy.Target {
				break
			}
		}

		offset = numeric.Digits(string(page.Next))
		if offset == "" {
			break
		}
	}

	if len(logs) == 0 {
		metrics.ScanResultsTotal.WithLabelValues(action.name, "empty").Inc()
		return nil, fmt.Errorf("scan %s: %w", action, ErrNoRecords)
	}
	metrics.ScanResultsTotal.WithLabelValues(action.name, "ok").Inc()
	return &chain.Response[[]TxLog]{
		Height: strconv.FormatUint(logs[0].Height, 10),
		Result: logs,
	}, nil
}

// ScanDeposits walks blocks backwards from height until it has found
// DepositTarget stable deposits. The response height is the start height.
// Budget and failure threshold apply as in Scan.
func (s *Scanner) ScanDeposits(ctx context.Context, height uint64) (*chain.Response[[]DepositStableLog], error) {
	const kind = "deposit_walk"

	var (
		start    = s.clock.Now()
		current  = height
		failures int
		logs     []DepositStableLog
	)

	for len(logs) < s.policy.DepositTarget {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.clock.Since(start) >= s.policy.Budget || failures >= s.policy.MaxFailures {
			metrics.ScanResultsTotal.WithLabelValues(kind, "timeout").Inc()
			return nil, fmt.Errorf("deposit walk from %d stopped at %d after %d failures: %w",
				height, current, failures, ErrTimeout)
		}

		page, err := s.src.BlockTxs(ctx, current, 0, s.policy.PageSize)
		if err != nil {
			failures++
			metrics.ScanRequestsTotal.WithLabelValues(kind, "error").Inc()
			s.logger.Debug("block txs request failed", "height", current, "failures", failures, "error", err)
			continue
		}
		failures = 0
		metrics.ScanRequestsTotal.WithLabelValues(kind, "ok").Inc()

		for _, tx := range page.TxResponses {
			rec, err := extractDeposit(tx, current)
			if err != nil {
				if !errors.Is(err, errSkip) {
					s.logger.Debug("skipping deposit", "height", current, "error", err)
				}
				continue
			}
			logs = append(logs, rec)
			if len(logs) == s.policy.DepositTarget {
				break
			}
		}

		if current == 0 {
			break
		}
		current--
	}

	if len(logs) == 0 {
		metrics.ScanResultsTotal.WithLabelValues(kind, "empty").Inc()
		return nil, fmt.Errorf("deposit walk from %d: %w", height, ErrNoRecords)
	}
	metrics.ScanResultsTotal.WithLabelValues(kind, "ok").Inc()
	return &chain.Response[[]DepositStableLog]{
		Height: strconv.FormatUint(height, 10),
		Result: logs,
	}, nil
}
