// Package core provides the schema-driven row ingestion pipeline.
//
// This package holds all ingestion logic independent of any database driver,
// file format, or transport. The CLI, the HTTP API, and tests all drive it
// through the same types.
//
// # Pipeline
//
// Data flows one way:
//
//  1. [Introspect] reads the target table's columns from the catalog and
//     classifies each catalog type into a [TypeCategory].
//  2. [Reconcile] compares a source's columns with the table's non-managed
//     columns and rejects the source unless they match exactly.
//  3. The [Ingestor] coerces each row with [Coerce], inserts it, and commits
//     it on its own.
//  4. The [Reporter] accumulates outcomes into a [BatchReport].
//
// Batch runs use [Ingestor.LoadBatch]. Interactive runs use
// [Ingestor.BeginManual] and a [ManualSession], whose caller owns the
// prompt loop.
//
// # Managed Column
//
// A column named like [DefaultManagedColumn] (compared case-insensitively) is
// never supplied by the caller. Interactive inserts bind a client-side
// timestamp for it; batch inserts let the database fill it with its own
// current-time expression.
//
// # Error Handling
//
// Connection, schema, and column-mismatch errors abort an operation. Coercion
// and insert errors are row-scoped and only ever appear in the report.
// [MapError] turns any of them into a coded [UserMessage] for operators.
package core
