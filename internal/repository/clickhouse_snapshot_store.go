package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
)

// execer is the write side of *sql.DB.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ClickHouseSnapshotStore keeps computed risk aggregates.
type ClickHouseSnapshotStore struct {
	db    *sql.DB
	exec  execer
	table string
}

var _ drepo.SnapshotStore = (*ClickHouseSnapshotStore)(nil)

// NewClickHouseSnapshotStore creates a snapshot store over db.
func NewClickHouseSnapshotStore(db *sql.DB, table string) *ClickHouseSnapshotStore {
	if table == "" {
		table = DefaultSnapshotTable
	}
	return &ClickHouseSnapshotStore{db: db, exec: db, table: table}
}

func (s *ClickHouseSnapshotStore) Save(ctx context.Context, snap models.RiskSnapshot) error {
	statuses, err := json.Marshal(snap.Statuses)
	if err != nil {
		return fmt.Errorf("encode statuses: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (computed_at, pair, counterparty, bump, spot, delta, gamma, theta, pnl, statuses) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err = s.exec.ExecContext(ctx, q,
		snap.ComputedAt.UTC(),
		snap.Pair,
		snap.Counterparty,
		snap.Bump,
		snap.Spot,
		snap.Total.Delta,
		snap.Total.Gamma,
		snap.Total.Theta,
		snap.Total.Pnl,
		string(statuses),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Recent returns the newest snapshots for pair and counterparty.
func (s *ClickHouseSnapshotStore) Recent(ctx context.Context, pair, counterparty string, limit int) ([]models.RiskSnapshot, error) {
	q := fmt.Sprintf("SELECT computed_at, pair, counterparty, bump, spot, delta, gamma, theta, pnl, statuses FROM %s WHERE pair = ? AND counterparty = ? ORDER BY computed_at DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, pair, counterparty, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.RiskSnapshot
	for rows.Next() {
		var (
			snap     models.RiskSnapshot
			statuses string
		)
		if err := rows.Scan(&snap.ComputedAt, &snap.Pair, &snap.Counterparty, &snap.Bump, &snap.Spot,
			&snap.Total.Delta, &snap.Total.Gamma, &snap.Total.Theta, &snap.Total.Pnl, &statuses); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		// A row with unreadable statuses still carries its totals.
		_ = json.Unmarshal([]byte(statuses), &snap.Statuses)
		out = append(out, snap)
	}
	return out, rows.Err()
}
