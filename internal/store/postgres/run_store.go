package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

var _ domain.RunStore = (*RunStore)(nil)

// RunStore implements domain.RunStore using PostgreSQL.
type RunStore struct {
	pool *pgxpool.Pool
}

// insertTransactionSQL is keyed by (run_id, id): runs with the same seed
// produce the same transaction IDs.
const insertTransactionSQL = `
	INSERT INTO sim_transactions (id, run_id, day, from_id, to_id, from_name, to_name, amount, description, ts)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10)
	ON CONFLICT (run_id, id) DO NOTHING`

// NewRunStore creates a new RunStore backed by the given connection pool.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

const runCols = `id, seed, start_date, days, days_completed, status, final_state, created_at, finished_at`

func scanRun(row pgx.Row) (domain.RunRecord, error) {
	var r domain.RunRecord
	var state []byte
	if err := row.Scan(
		&r.ID, &r.Seed, &r.StartDate, &r.Days, &r.DaysCompleted,
		&r.Status, &state, &r.CreatedAt, &r.FinishedAt,
	); err != nil {
		return domain.RunRecord{}, err
	}
	if state != nil {
		var s domain.MarketState
		if err := json.Unmarshal(state, &s); err != nil {
			return domain.RunRecord{}, fmt.Errorf("unmarshal final state: %w", err)
		}
		r.FinalState = &s
	}
	return r, nil
}

// CreateRun inserts the run row. Creating an existing run is a no-op.
func (s *RunStore) CreateRun(ctx context.Context, run domain.RunRecord) error {
	const query = `
		INSERT INTO sim_runs (id, seed, start_date, days, days_completed, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`
	if _, err := s.pool.Exec(ctx, query,
		run.ID, run.Seed, run.StartDate, run.Days, run.DaysCompleted, run.Status,
	); err != nil {
		return fmt.Errorf("postgres: create run %s: %w", run.ID, err)
	}
	return nil
}

// SaveSnapshot stores one day and the transactions settled on it in a single
// batch, and advances the run's progress.
func (s *RunStore) SaveSnapshot(ctx context.Context, snap domain.DaySnapshot) error {
	state, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("postgres: marshal state: %w", err)
	}
	prices, err := json.Marshal(snap.Prices)
	if err != nil {
		return fmt.Errorf("postgres: marshal prices: %w", err)
	}
	liquidity, err := json.Marshal(snap.Liquidity)
	if err != nil {
		return fmt.Errorf("postgres: marshal liquidity: %w", err)
	}
	var event, actions []byte
	if snap.Event != nil {
		if event, err = json.Marshal(snap.Event); err != nil {
			return fmt.Errorf("postgres: marshal event: %w", err)
		}
	}
	if len(snap.Actions) > 0 {
		if actions, err = json.Marshal(snap.Actions); err != nil {
			return fmt.Errorf("postgres: marshal actions: %w", err)
		}
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO sim_days (run_id, day, date, state, prices, liquidity, event, actions, messages, failed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id, day) DO UPDATE SET
			state = EXCLUDED.state,
			prices = EXCLUDED.prices,
			liquidity = EXCLUDED.liquidity,
			event = EXCLUDED.event,
			actions = EXCLUDED.actions,
			messages = EXCLUDED.messages,
			failed = EXCLUDED.failed`,
		snap.RunID, snap.Day, snap.Date, state, prices, liquidity, event, actions, snap.Messages, snap.Failed,
	)
	for _, tx := range snap.Transactions {
		batch.Queue(insertTransactionSQL,
			tx.ID, snap.RunID, tx.Day, tx.From, tx.To, tx.FromName, tx.ToName,
			tx.Amount.StringFixed(2), tx.Description, tx.Timestamp,
		)
	}
	batch.Queue(`UPDATE sim_runs SET days_completed = $2, status = $3 WHERE id = $1`,
		snap.RunID, snap.Day+1, domain.StatusRunning.String(),
	)

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: save day %d batch item %d: %w", snap.Day, i, err)
		}
	}
	return nil
}

// SaveResults records the final state, entity views and analytics of a run.
func (s *RunStore) SaveResults(ctx context.Context, res domain.Results) error {
	state, err := json.Marshal(res.FinalState)
	if err != nil {
		return fmt.Errorf("postgres: marshal final state: %w", err)
	}
	entities, err := json.Marshal(res.Entities)
	if err != nil {
		return fmt.Errorf("postgres: marshal entities: %w", err)
	}
	var analytics []byte
	if res.Analytics != nil {
		if analytics, err = json.Marshal(res.Analytics); err != nil {
			return fmt.Errorf("postgres: marshal analytics: %w", err)
		}
	}

	const query = `
		UPDATE sim_runs SET
			days_completed = $2,
			status = $3,
			final_state = $4,
			entities = $5,
			analytics = $6,
			finished_at = NOW()
		WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query,
		res.RunID, res.DaysCompleted, res.Status.String(), state, entities, analytics,
	)
	if err != nil {
		return fmt.Errorf("postgres: save results %s: %w", res.RunID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: save results %s: %w", res.RunID, domain.ErrNotFound)
	}
	return nil
}

// GetRun returns a run by ID.
func (s *RunStore) GetRun(ctx context.Context, id string) (domain.RunRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runCols+` FROM sim_runs WHERE id = $1`, id)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RunRecord{}, domain.ErrNotFound
		}
		return domain.RunRecord{}, fmt.Errorf("postgres: get run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns runs newest first.
func (s *RunStore) ListRuns(ctx context.Context, opts domain.ListOpts) ([]domain.RunRecord, error) {
	query := `SELECT ` + runCols + ` FROM sim_runs ORDER BY created_at DESC`
	args := []any{}
	argIdx := 1
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list runs rows: %w", err)
	}
	return runs, nil
}
