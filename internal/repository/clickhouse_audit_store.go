package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
)

const auditColumns = "id, type, actor, subject, status, count, payload, occurred_at"

// ClickHouseAuditStore keeps desk events.
type ClickHouseAuditStore struct {
	db        *sql.DB
	exec      execer
	table     string
	chunkSize int
}

var _ drepo.AuditStore = (*ClickHouseAuditStore)(nil)

// NewClickHouseAuditStore creates an audit store over db. chunkSize bounds the
// rows per INSERT; zero uses 2000.
func NewClickHouseAuditStore(db *sql.DB, table string, chunkSize int) *ClickHouseAuditStore {
	if table == "" {
		table = DefaultAuditTable
	}
	if chunkSize <= 0 {
		chunkSize = 2000
	}
	return &ClickHouseAuditStore{db: db, exec: db, table: table, chunkSize: chunkSize}
}

func (s *ClickHouseAuditStore) Store(ctx context.Context, e models.DeskEvent) error {
	return s.StoreBatch(ctx, []models.DeskEvent{e})
}

// StoreBatch inserts events with multi-row VALUES statements. Events without
// an id are skipped.
func (s *ClickHouseAuditStore) StoreBatch(ctx context.Context, events []models.DeskEvent) error {
	for start := 0; start < len(events); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(events) {
			end = len(events)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, e := range events[start:end] {
			if e.ID == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				e.ID,
				string(e.Type),
				e.Actor,
				e.Subject,
				e.Status,
				uint32(e.Count),
				string(e.Payload),
				e.OccurredAt.UTC(),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, auditColumns, strings.Join(values, ","))
		if _, err := s.exec.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert audit events: %w", err)
		}
	}
	return nil
}

// Query returns stored events matching q, newest first.
func (s *ClickHouseAuditStore) Query(ctx context.Context, q models.AuditQuery) ([]models.DeskEvent, error) {
	stmt, args := s.selectStatement(q)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []models.DeskEvent
	for rows.Next() {
		var (
			e       models.DeskEvent
			typ     string
			count   uint32
			payload string
		)
		if err := rows.Scan(&e.ID, &typ, &e.Actor, &e.Subject, &e.Status, &count, &payload, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Type = models.EventType(typ)
		e.Count = int(count)
		if payload != "" {
			e.Payload = []byte(payload)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *ClickHouseAuditStore) selectStatement(q models.AuditQuery) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if q.Type != "" {
		where = append(where, "type = ?")
		args = append(args, q.Type)
	}
	if q.Actor != "" {
		where = append(where, "actor = ?")
		args = append(args, q.Actor)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s FINAL", auditColumns, s.table)
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY occurred_at DESC LIMIT ?"
	return stmt, append(args, limit)
}
