// Package store persists completed intake records. Handoff is at least
// once; the upsert is idempotent per call so replays are harmless.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dwellio/voicebridge/internal/flow"
)

// recentHandoffs bounds the duplicate-suppression cache.
const recentHandoffs = 1024

// RecordStore accepts completed intake records.
type RecordStore interface {
	SaveRecord(ctx context.Context, rec *flow.Record) error
}

const upsertRecordSQL = `
INSERT INTO intake_records (call_id, flow_variant, lead_id, org_id, fields, notes, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (call_id) DO UPDATE SET
	flow_variant = EXCLUDED.flow_variant,
	lead_id = EXCLUDED.lead_id,
	org_id = EXCLUDED.org_id,
	fields = EXCLUDED.fields,
	notes = EXCLUDED.notes,
	updated_at = now()`

// PostgresStore writes records to the intake_records table.
type PostgresStore struct {
	logger *zap.Logger
	pool   *pgxpool.Pool

	// seen suppresses redundant upserts for calls already handed off by
	// this process. Misses just mean an extra idempotent write.
	seen *lru.Cache[string, struct{}]
}

// NewPostgresStore connects a record store to the given database.
func NewPostgresStore(ctx context.Context, logger *zap.Logger, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	seen, err := lru.New[string, struct{}](recentHandoffs)
	if err != nil {
		return nil, err
	}

	return &PostgresStore{logger: logger, pool: pool, seen: seen}, nil
}

// SaveRecord upserts the record keyed by call ID.
func (s *PostgresStore) SaveRecord(ctx context.Context, rec *flow.Record) error {
	if _, dup := s.seen.Get(rec.CallID); dup {
		s.logger.Debug("Skipping duplicate record handoff", zap.String("call_id", rec.CallID))

		return nil
	}

	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("encode record fields: %w", err)
	}

	_, err = s.pool.Exec(ctx, upsertRecordSQL,
		rec.CallID, rec.FlowVariant, rec.LeadID, rec.OrgID, fields, rec.Notes)
	if err != nil {
		return fmt.Errorf("upsert intake record: %w", err)
	}

	s.seen.Add(rec.CallID, struct{}{})
	s.logger.Info("Intake record persisted",
		zap.String("call_id", rec.CallID),
		zap.String("flow_variant", rec.FlowVariant))

	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// LogStore is the fallback when no database is configured; records land in
// the process log only.
type LogStore struct {
	logger *zap.Logger
}

// NewLogStore builds the log-only record store.
func NewLogStore(logger *zap.Logger) *LogStore {
	return &LogStore{logger: logger}
}

// SaveRecord logs the record.
func (s *LogStore) SaveRecord(_ context.Context, rec *flow.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.logger.Info("Intake record (no database configured)", zap.ByteString("record", raw))

	return nil
}
