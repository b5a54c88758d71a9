package main

import (
	"errors"
	"flag"
	"fmt"

	"questionnaire/internal/storage"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Applies migrations from -migration-path, or the schema embedded in the
// binary when no path is given.
func main() {
	var migrationPath, databaseURL string
	flag.StringVar(&databaseURL, "database_url", "", "Postgres connection URL")
	flag.StringVar(&migrationPath, "migration-path", "", "Path to the migrations directory")
	flag.Parse()

	if databaseURL == "" {
		panic("database URL is required")
	}

	if migrationPath == "" {
		if err := storage.Migrate(databaseURL); err != nil {
			panic(err)
		}
		return
	}

	m, err := migrate.New("file://"+migrationPath, databaseURL)
	if err != nil {
		panic(err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("no migrations to apply")

			return
		}

		panic(err)
	}

	fmt.Println("Migrations applied")
}
