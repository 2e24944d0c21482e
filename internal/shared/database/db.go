package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pathwise/ai-orchestrator/internal/shared/models"
)

type DB struct {
	conn *sql.DB
}

// New creates a new database connection
func New(databaseURL string) (*DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// InsertResponseLog appends one audit row. The response_logs table is
// append-only; rows are never updated or deleted by this service.
func (db *DB) InsertResponseLog(ctx context.Context, rec *models.ResponseLog) error {
	var metadata []byte
	if rec.Metadata != nil {
		var err error
		metadata, err = json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
	}

	query := `
		INSERT INTO response_logs (
			function_name, identity, caller_id, provider, model, latency_ms,
			cost_estimate, prompt_tokens, completion_tokens, total_tokens,
			request_id, status, error, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := db.conn.ExecContext(ctx,
		query,
		rec.FunctionName,
		rec.Identity,
		rec.CallerID,
		rec.Provider,
		rec.Model,
		rec.LatencyMs,
		rec.CostEstimateUSD,
		rec.PromptTokens,
		rec.CompletionTokens,
		rec.TotalTokens,
		rec.RequestID,
		rec.Status,
		rec.ErrorMessage,
		metadata,
	)

	return err
}

// ListResponseLogs returns the most recent audit rows for one identity,
// newest first. Used by audit/debug queries, not by the request path.
func (db *DB) ListResponseLogs(ctx context.Context, identity string, limit int) ([]*models.ResponseLog, error) {
	query := `
		SELECT function_name, identity, caller_id, provider, model, latency_ms,
		       cost_estimate, prompt_tokens, completion_tokens, total_tokens,
		       request_id, status, error, created_at
		FROM response_logs
		WHERE identity = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := db.conn.QueryContext(ctx, query, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var logs []*models.ResponseLog
	for rows.Next() {
		var rec models.ResponseLog
		if err := rows.Scan(
			&rec.FunctionName,
			&rec.Identity,
			&rec.CallerID,
			&rec.Provider,
			&rec.Model,
			&rec.LatencyMs,
			&rec.CostEstimateUSD,
			&rec.PromptTokens,
			&rec.CompletionTokens,
			&rec.TotalTokens,
			&rec.RequestID,
			&rec.Status,
			&rec.ErrorMessage,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		logs = append(logs, &rec)
	}

	return logs, rows.Err()
}
