// Package migrations runs the embedded SQL migrations for the relational
// score tables (Postgres) and the edition audit table (ClickHouse).
package migrations

import "embed"

// PostgresFS holds the Postgres migration files, applied in name order.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the ClickHouse migration files, applied in name order.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
