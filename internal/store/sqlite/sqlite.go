package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nulzo/unillm/internal/store"
	"github.com/nulzo/unillm/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // *sqlx.DB or *sqlx.Tx
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Pricing() store.PricingRepository {
	return &pricingRepo{db: r.executor}
}

func (r *SqliteRepository) Costs() store.CostRepository {
	return &costRepo{db: r.executor}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

type pricingRepo struct {
	db DB
}

func (r *pricingRepo) Upsert(ctx context.Context, rec *model.PricingRecord) error {
	query := `
	INSERT INTO pricing_overrides (model, currency, tiers_json, source, created_at, updated_at)
	VALUES (:model, :currency, :tiers_json, :source, :created_at, :updated_at)
	ON CONFLICT(model) DO UPDATE SET
		currency = excluded.currency,
		tiers_json = excluded.tiers_json,
		source = excluded.source,
		updated_at = excluded.updated_at`
	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

func (r *pricingRepo) Get(ctx context.Context, modelName string) (*model.PricingRecord, error) {
	var rec model.PricingRecord
	err := r.db.GetContext(ctx, &rec, `SELECT * FROM pricing_overrides WHERE model = ?`, modelName)
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *pricingRepo) List(ctx context.Context) ([]model.PricingRecord, error) {
	var recs []model.PricingRecord
	err := r.db.SelectContext(ctx, &recs, `SELECT * FROM pricing_overrides ORDER BY model`)
	return recs, err
}

func (r *pricingRepo) Delete(ctx context.Context, modelName string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pricing_overrides WHERE model = ?`, modelName)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type costRepo struct {
	db DB
}

func (r *costRepo) Log(ctx context.Context, rec *model.CostRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	query := `
	INSERT INTO cost_ledger (
		id, model, prompt_tokens, completion_tokens,
		input_rate, output_rate, cost, currency,
		client_ip, created_at
	) VALUES (
		:id, :model, :prompt_tokens, :completion_tokens,
		:input_rate, :output_rate, :cost, :currency,
		:client_ip, :created_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

func (r *costRepo) GetByID(ctx context.Context, id string) (*model.CostRecord, error) {
	var rec model.CostRecord
	if err := r.db.GetContext(ctx, &rec, `SELECT * FROM cost_ledger WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *costRepo) GetRecent(ctx context.Context, modelName string, limit int) ([]model.CostRecord, error) {
	var recs []model.CostRecord
	if modelName == "" {
		err := r.db.SelectContext(ctx, &recs, `SELECT * FROM cost_ledger ORDER BY created_at DESC LIMIT ?`, limit)
		return recs, err
	}
	query := `SELECT * FROM cost_ledger WHERE model = ? ORDER BY created_at DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &recs, query, modelName, limit)
	return recs, err
}

func (r *costRepo) GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error) {
	var stats []model.DailyStats
	query := `
		SELECT
			DATE(created_at) AS date,
			currency,
			COUNT(*) AS total_requests,
			COALESCE(SUM(prompt_tokens), 0) AS prompt_tokens,
			COALESCE(SUM(completion_tokens), 0) AS completion_tokens,
			COALESCE(SUM(cost), 0) AS total_cost
		FROM cost_ledger
		WHERE created_at >= DATE('now', ?)
		GROUP BY date, currency
		ORDER BY date DESC, currency
	`
	// SQLite date offset format is '-7 days'
	err := r.db.SelectContext(ctx, &stats, query, fmt.Sprintf("-%d days", days))
	return stats, err
}
