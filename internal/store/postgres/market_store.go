package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oddslens/engine/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL. Markets are
// upserted by canonical ID, so a market keeps its row across cycles, and
// every cycle appends one probability observation per market. Computed
// signals are never written here.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// UpsertMarkets writes one cycle's selected markets in a single batch and
// appends a probability-history point for each.
func (s *MarketStore) UpsertMarkets(ctx context.Context, runID string, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	const upsert = `
		INSERT INTO markets (
			id, title, description, category,
			probability, previous_probability, volume, change_24h,
			status, end_date, source, clob_token_id, condition_id,
			last_run_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			title                = EXCLUDED.title,
			description          = EXCLUDED.description,
			category             = EXCLUDED.category,
			previous_probability = markets.probability,
			probability          = EXCLUDED.probability,
			volume               = EXCLUDED.volume,
			change_24h           = EXCLUDED.change_24h,
			status               = EXCLUDED.status,
			end_date             = EXCLUDED.end_date,
			clob_token_id        = EXCLUDED.clob_token_id,
			condition_id         = EXCLUDED.condition_id,
			last_run_id          = EXCLUDED.last_run_id,
			updated_at           = NOW()`

	const appendHistory = `
		INSERT INTO probability_history (market_id, observed_at, probability)
		VALUES ($1, NOW(), $2)
		ON CONFLICT DO NOTHING`

	batch := &pgx.Batch{}
	for _, m := range markets {
		batch.Queue(upsert,
			m.ID, m.Title, m.Description, string(m.Category),
			m.Probability, m.PreviousProbability, m.Volume, m.Change24h,
			string(m.Status), m.EndDate, string(m.Source), m.ClobTokenID, m.ConditionID,
			runID,
		)
		batch.Queue(appendHistory, m.ID, m.Probability)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range markets {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert market batch: %w", err)
		}
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: append history batch: %w", err)
		}
	}
	return nil
}

// History returns up to limit stored probability points for a market,
// oldest first.
func (s *MarketStore) History(ctx context.Context, marketID string, limit int) ([]domain.PricePoint, error) {
	if limit <= 0 {
		limit = 100
	}

	const query = `
		SELECT observed_at, probability FROM (
			SELECT observed_at, probability
			FROM probability_history
			WHERE market_id = $1
			ORDER BY observed_at DESC
			LIMIT $2
		) recent
		ORDER BY observed_at ASC`

	rows, err := s.pool.Query(ctx, query, marketID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: query history %s: %w", marketID, err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var at time.Time
		var prob float64
		if err := rows.Scan(&at, &prob); err != nil {
			return nil, fmt.Errorf("postgres: scan history %s: %w", marketID, err)
		}
		points = append(points, domain.PricePoint{Timestamp: at.UnixMilli(), Probability: prob})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate history %s: %w", marketID, err)
	}
	return points, nil
}

// Count returns the number of known markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

// Compile-time interface check.
var _ domain.MarketStore = (*MarketStore)(nil)
