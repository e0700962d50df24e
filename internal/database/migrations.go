package database

import (
	"embed"
	"io/fs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Каталоги миграций golang-migrate внутри MigrationsFS.
const (
	PostgresMigrationsPath = "migrations/postgres"
	SQLiteMigrationsPath   = "migrations/sqlite"
)

// MigrationsFS returns the embedded migration files.
func MigrationsFS() fs.FS { return migrationsFS }
