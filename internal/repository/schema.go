package repository

import "fmt"

const (
	DefaultSnapshotTable = "risk_snapshots"
	DefaultAuditTable    = "desk_audit"
)

// Schema returns the DDL for the snapshot and audit tables.
func Schema(snapshotTable, auditTable string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	computed_at DateTime64(3, 'UTC'),
	pair LowCardinality(String),
	counterparty LowCardinality(String),
	bump Float64,
	spot Float64,
	delta Float64,
	gamma Float64,
	theta Float64,
	pnl Float64,
	statuses String
) ENGINE = MergeTree
ORDER BY (pair, counterparty, computed_at)
TTL toDateTime(computed_at) + INTERVAL 90 DAY`, snapshotTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id String,
	type LowCardinality(String),
	actor String,
	subject String,
	status LowCardinality(String),
	count UInt32,
	payload String,
	occurred_at DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree
ORDER BY (type, occurred_at, id)`, auditTable),
	}
}
