// Package store provides handoff.Store implementations for DynamoDB,
// PostgreSQL and SQLite. Each backend enforces code uniqueness and the
// status compare-and-set inside the database itself.
package store
