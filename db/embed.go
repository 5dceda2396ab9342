// Package db embeds the database schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for every application table. It is idempotent and
// safe to re-run against an existing database.
//
//go:embed migrations/001_schema.sql
var Schema string
