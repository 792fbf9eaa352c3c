// Package db provides embedded database schema and seed files.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedTemplates contains sample coupon templates for local development.
//
//go:embed seed/templates.json
var SeedTemplates []byte
