package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS tx_logs (
    id BIGSERIAL PRIMARY KEY,
    requirement_key TEXT NOT NULL,
    height BIGINT NOT NULL,
    tx_timestamp TIMESTAMPTZ NOT NULL,
    gas_wanted NUMERIC NOT NULL,
    gas_used NUMERIC NOT NULL,
    amount NUMERIC NOT NULL,
    fee_denom TEXT NOT NULL,
    fee_amount NUMERIC NOT NULL,
    raw_log TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE(requirement_key, height, amount, fee_amount)
);

CREATE INDEX IF NOT EXISTS tx_logs_key_height_idx ON tx_logs (requirement_key, height DESC);

CREATE TABLE IF NOT EXISTS earn_apy_samples (
    id BIGSERIAL PRIMARY KEY,
    height BIGINT NOT NULL UNIQUE,
    apy NUMERIC NOT NULL,
    current_height BIGINT NOT NULL,
    current_rate NUMERIC NOT NULL,
    historic_height BIGINT NOT NULL,
    historic_rate NUMERIC NOT NULL,
    sampled_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
