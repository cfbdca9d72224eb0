package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/web3-frozen/anchor-autopilot/internal/chain"
	"github.com/web3-frozen/anchor-autopilot/internal/metrics"
	"github.com/web3-frozen/anchor-autopilot/internal/numeric"
	"github.com/web3-frozen/anchor-autopilot/internal/txlog"
	"github.com/web3-frozen/anchor-autopilot/internal/yield"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Archive persists the values worth keeping history for: transaction scans
// and earn APY samples. Other values are ignored.
func (s *Store) Archive(ctx context.Context, key string, value any) error {
	switch v := value.(type) {
	case *chain.Response[[]txlog.TxLog]:
		return s.track("tx_logs", s.insertTxLogs(ctx, key, v.Result))
	case *chain.Response[yield.APY]:
		return s.track("earn_apy_samples", s.insertAPY(ctx, v))
	}
	return nil
}

func (s *Store) track(table string, err error) error {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ArchiveWritesTotal.WithLabelValues(table, status).Inc()
	return err
}

// --- Transaction logs ---

func (s *Store) insertTxLogs(ctx context.Context, key string, logs []txlog.TxLog) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range logs {
		batch.Queue(`
			INSERT INTO tx_logs (requirement_key, height, tx_timestamp, gas_wanted, gas_used, amount, fee_denom, fee_amount, raw_log)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (requirement_key, height, amount, fee_amount) DO NOTHING`,
			key, int64(l.Height), time.Unix(l.Timestamp, 0).UTC(),
			l.GasWanted, l.GasUsed, l.Amount, l.FeeDenom, l.FeeAmount, l.RawLog)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert tx logs for %s: %w", key, err)
	}
	return nil
}

// RecentTxLogs returns the newest archived records of a scan key.
func (s *Store) RecentTxLogs(ctx context.Context, key string, limit int) ([]txlog.TxLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT height, tx_timestamp, gas_wanted, gas_used, amount, fee_denom, fee_amount, raw_log
		FROM tx_logs WHERE requirement_key = $1
		ORDER BY height DESC LIMIT $2`, key, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []txlog.TxLog
	for rows.Next() {
		var (
			l      txlog.TxLog
			height int64
			ts     time.Time
		)
		if err := rows.Scan(&height, &ts, &l.GasWanted, &l.GasUsed, &l.Amount, &l.FeeDenom, &l.FeeAmount, &l.RawLog); err != nil {
			return nil, err
		}
		l.Height = uint64(height)
		l.Timestamp = ts.Unix()
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// --- Earn APY ---

type APYSample struct {
	Height         uint64          `json:"height"`
	APY            decimal.Decimal `json:"apy"`
	CurrentHeight  uint64          `json:"current_height"`
	CurrentRate    decimal.Decimal `json:"current_rate"`
	HistoricHeight uint64          `json:"historic_height"`
	HistoricRate   decimal.Decimal `json:"historic_rate"`
	SampledAt      time.Time       `json:"sampled_at"`
}

func (s *Store) insertAPY(ctx context.Context, r *chain.Response[yield.APY]) error {
	height, err := numeric.ParseUint(r.Height)
	if err != nil {
		return fmt.Errorf("apy sample height: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO earn_apy_samples (height, apy, current_height, current_rate, historic_height, historic_rate)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (height) DO NOTHING`,
		int64(height), r.Result.APY,
		int64(r.Result.Current.Height), r.Result.Current.ExchangeRate,
		int64(r.Result.Historic.Height), r.Result.Historic.ExchangeRate)
	if err != nil {
		return fmt.Errorf("insert apy sample: %w", err)
	}
	return nil
}

// RecentAPY returns the newest APY samples, newest first.
func (s *Store) RecentAPY(ctx context.Context, limit int) ([]APYSample, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT height, apy, current_height, current_rate, historic_height, historic_rate, sampled_at
		FROM earn_apy_samples ORDER BY height DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []APYSample
	for rows.Next() {
		var (
			a                         APYSample
			height, current, historic int64
		)
		if err := rows.Scan(&height, &a.APY, &current, &a.CurrentRate, &historic, &a.HistoricRate, &a.SampledAt); err != nil {
			return nil, err
		}
		a.Height, a.CurrentHeight, a.HistoricHeight = uint64(height), uint64(current), uint64(historic)
		samples = append(samples, a)
	}
	return samples, rows.Err()
}
