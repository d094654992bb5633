package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Garsondee/fincraft/internal/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS placements (
	account_id   TEXT PRIMARY KEY,
	grid_x       INTEGER NOT NULL,
	grid_y       INTEGER NOT NULL,
	facing_right BOOLEAN NOT NULL DEFAULT false
);
CREATE TABLE IF NOT EXISTS transactions (
	position INTEGER PRIMARY KEY,
	payload  JSONB NOT NULL
);
`

// Postgres stores placements and the transaction pool in PostgreSQL.
type Postgres struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

// OpenPostgres connects to url and creates the tables if they are missing.
func OpenPostgres(ctx context.Context, url string, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	logger.Info("postgres store ready")
	return &Postgres{db: pool, log: logger}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.db.Close()
}

func (p *Postgres) LoadPlacement(ctx context.Context, accountID string) (sim.Placement, bool, error) {
	pl := sim.Placement{AccountID: accountID}
	err := p.db.QueryRow(ctx, `
		SELECT grid_x, grid_y, facing_right
		FROM placements
		WHERE account_id = $1
	`, accountID).Scan(&pl.GridX, &pl.GridY, &pl.FacingRight)
	if errors.Is(err, pgx.ErrNoRows) {
		return sim.Placement{}, false, nil
	}
	if err != nil {
		return sim.Placement{}, false, fmt.Errorf("load placement %s: %w", accountID, err)
	}
	return pl, true, nil
}

func (p *Postgres) SavePlacement(ctx context.Context, pl sim.Placement) error {
	if pl.AccountID == "" {
		return errors.New("store: placement without account id")
	}
	_, err := p.db.Exec(ctx, `
		INSERT INTO placements (account_id, grid_x, grid_y, facing_right)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO UPDATE
		SET grid_x = EXCLUDED.grid_x,
		    grid_y = EXCLUDED.grid_y,
		    facing_right = EXCLUDED.facing_right
	`, pl.AccountID, pl.GridX, pl.GridY, pl.FacingRight)
	if err != nil {
		return fmt.Errorf("save placement %s: %w", pl.AccountID, err)
	}
	return nil
}

func (p *Postgres) LoadTransactions(ctx context.Context) ([]sim.Transaction, error) {
	rows, err := p.db.Query(ctx, `SELECT payload FROM transactions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	var out []sim.Transaction
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		var tx sim.Transaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			p.log.Warn("skipping unreadable transaction row", "error", err)
			continue
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return out, nil
}

// SaveTransactions replaces the stored pool in one transaction.
func (p *Postgres) SaveTransactions(ctx context.Context, txs []sim.Transaction) error {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	batch := &pgx.Batch{}
	for i, t := range txs {
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode transaction %d: %w", i, err)
		}
		batch.Queue(`INSERT INTO transactions (position, payload) VALUES ($1, $2)`, i, payload)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert transactions: %w", err)
		}
	}
	return tx.Commit(ctx)
}
