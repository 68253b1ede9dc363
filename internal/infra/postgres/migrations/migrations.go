// Package migrations holds the relational schema, applied with bun's migrator.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered schema history; each file registers one step named after itself.
var Migrations = migrate.NewMigrations()
