// Package store provides a bun-based SQL implementation of the
// processor's store gateway.
//
// It is compatible with PostgreSQL (the intended production dialect,
// reached through bun/dialect/pgdialect and jackc/pgx) and with SQLite
// (bun/dialect/sqlitedialect and modernc.org/sqlite, used by this
// package's own tests), subject to each dialect's transactional
// guarantees.
//
// # Schema
//
// Store expects three tables matching model.User, model.Settings and
// query.Query: "users", "user_settings" and "queries". InitSchema creates
// them (if not exists) along with the (status, user_id, created_at) index
// required by ListPending, and is idempotent.
//
// # Status transitions
//
// UpdateStatus is transactional: it reads the current row, computes the
// merged result_metadata, sets started_at/completed_at exactly when the
// permitted status DAG requires it, and writes the row back inside a
// single transaction. Concurrent writers to the same query row are
// serialised by the database's transaction isolation.
//
// # Single-writer assumption
//
// Like the rest of the processor, Store assumes a single processor
// instance. It performs no distributed locking beyond what a single SQL
// transaction provides.
package store
