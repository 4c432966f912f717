// Command migrate applies the CRM schema migrations with goose. Staging and
// production run it as a release step; development relies on AutoMigrate
// instead.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/hartwood-buildings/crm-api/internal/config"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const usage = `usage: migrate <command>

commands:
  up                apply all pending migrations
  up-to VERSION     migrate up to a specific version
  down              roll back the most recent migration
  down-to VERSION   roll back to a specific version
  redo              roll back and re-apply the most recent migration
  status            print the migration status table
  version           print the current schema version
  create NAME       create a new SQL migration`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := os.Args[1:]
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	// Relative to the repo root; containers override via MIGRATIONS_DIR.
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "./migrations"
	}

	command := args[0]
	arguments := args[1:]

	switch command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			return fmt.Errorf("up failed: %w", err)
		}
		fmt.Println("Migrations applied")

	case "up-to":
		version, err := parseVersion(arguments)
		if err != nil {
			return err
		}
		if err := goose.UpTo(db, dir, version); err != nil {
			return fmt.Errorf("up-to %d failed: %w", version, err)
		}
		fmt.Printf("Migrated up to version %d\n", version)

	case "down":
		if err := goose.Down(db, dir); err != nil {
			return fmt.Errorf("down failed: %w", err)
		}
		fmt.Println("Rolled back one migration")

	case "down-to":
		version, err := parseVersion(arguments)
		if err != nil {
			return err
		}
		if err := goose.DownTo(db, dir, version); err != nil {
			return fmt.Errorf("down-to %d failed: %w", version, err)
		}
		fmt.Printf("Rolled back to version %d\n", version)

	case "redo":
		if err := goose.Redo(db, dir); err != nil {
			return fmt.Errorf("redo failed: %w", err)
		}
		fmt.Println("Re-applied the most recent migration")

	case "status":
		if err := goose.Status(db, dir); err != nil {
			return fmt.Errorf("status failed: %w", err)
		}

	case "version":
		if err := goose.Version(db, dir); err != nil {
			return fmt.Errorf("version failed: %w", err)
		}

	case "create":
		if len(arguments) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		if err := goose.Create(db, dir, arguments[0], "sql"); err != nil {
			return fmt.Errorf("create failed: %w", err)
		}
		fmt.Printf("Migration created: %s\n", arguments[0])

	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	return nil
}

func parseVersion(arguments []string) (int64, error) {
	if len(arguments) == 0 {
		return 0, fmt.Errorf("a target version is required")
	}
	version, err := strconv.ParseInt(arguments[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", arguments[0], err)
	}
	return version, nil
}
