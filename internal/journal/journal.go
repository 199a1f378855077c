// Package journal keeps a rolling SQLite record of lifecycle cycles for
// on-device diagnostics. It never influences the lifecycle itself.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/climate-node/internal/node"
)

// timeLayout is fixed width so that started_at sorts correctly as TEXT.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Limits for Recent.
const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// Entry is one journalled cycle.
type Entry struct {
	ID        string
	NodeID    string
	Mode      node.Mode
	StartedAt time.Time
	Duration  time.Duration
	NetworkUp bool
	BrokerUp  bool

	// Temperature and Humidity are nil when no reading was taken.
	Temperature *float64
	Humidity    *float64

	Published bool
	Result    string
	Fault     string
}

// Repository writes cycles to the cycles table and prunes old rows.
type Repository struct {
	db         *sql.DB
	nodeID     string
	maxEntries int
}

// NewRepository creates a journal over an open, migrated database.
// maxEntries <= 0 disables pruning.
func NewRepository(db *sql.DB, nodeID string, maxEntries int) *Repository {
	return &Repository{db: db, nodeID: nodeID, maxEntries: maxEntries}
}

// RecordCycle stores the report and trims the journal to maxEntries rows.
// The stored reading uses the published two-decimal rounding.
func (r *Repository) RecordCycle(ctx context.Context, report node.CycleReport) error {
	var temperature, humidity any
	if p, ok := report.Payload(); ok {
		temperature = p.Temperature
		humidity = p.Humidity
	}

	var fault any
	if report.Fault != nil {
		fault = report.Fault.Error()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cycles (id, node_id, mode, started_at, duration_ms, network_up, broker_up,
		                     temperature, humidity, published, result, fault)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), r.nodeID, string(report.Mode),
		report.StartedAt.UTC().Format(timeLayout), report.Duration.Milliseconds(),
		report.NetworkUp, report.BrokerUp,
		temperature, humidity,
		report.Published, report.Outcome().String(), fault,
	)
	if err != nil {
		return fmt.Errorf("inserting cycle: %w", err)
	}

	return r.prune(ctx)
}

// prune deletes everything but the newest maxEntries rows.
func (r *Repository) prune(ctx context.Context) error {
	if r.maxEntries <= 0 {
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cycles WHERE id NOT IN (
			SELECT id FROM cycles ORDER BY started_at DESC LIMIT ?
		)`,
		r.maxEntries,
	)
	if err != nil {
		return fmt.Errorf("pruning cycles: %w", err)
	}
	return nil
}

// Recent returns up to limit cycles, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, node_id, mode, started_at, duration_ms, network_up, broker_up,
		        temperature, humidity, published, result, fault
		 FROM cycles ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying cycles: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                     Entry
			mode, startedAt       string
			durationMS            int64
			temperature, humidity sql.NullFloat64
			fault                 sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.NodeID, &mode, &startedAt, &durationMS,
			&e.NetworkUp, &e.BrokerUp, &temperature, &humidity,
			&e.Published, &e.Result, &fault); err != nil {
			return nil, fmt.Errorf("scanning cycle: %w", err)
		}

		t, err := time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing cycle timestamp %q: %w", startedAt, err)
		}

		e.Mode = node.Mode(mode)
		e.StartedAt = t
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if temperature.Valid {
			e.Temperature = &temperature.Float64
		}
		if humidity.Valid {
			e.Humidity = &humidity.Float64
		}
		e.Fault = fault.String

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cycles: %w", err)
	}
	return entries, nil
}

// Count returns the number of journalled cycles.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cycles").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cycles: %w", err)
	}
	return n, nil
}
