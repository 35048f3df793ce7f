package migrations

import "embed"

// PostgresFS holds the auction and solution schema, applied in
// lexical filename order.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the solve report schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
