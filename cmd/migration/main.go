package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fadedpez/gamblinghall/pkg/db/migrations"
	walletRepo "github.com/fadedpez/gamblinghall/pkg/repositories/wallet"
)

func main() {
	// Define command-line flags
	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)

	// Create command options
	migrationsDir := createCmd.String("dir", "pkg/db/migrations/sql/sqlite3", "Directory to store migrations")

	// Migrate command options
	driver := migrateCmd.String("driver", walletRepo.DriverSQLite, "Database driver (sqlite3 or postgres)")
	dsn := migrateCmd.String("dsn", "gamblinghall.db", "Database connection string")
	migrateDir := migrateCmd.String("dir", "", "Directory containing migrations (default: the schema built into the binary)")

	// Show usage if no arguments provided
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Parse command
	switch os.Args[1] {
	case "create":
		createCmd.Parse(os.Args[2:])
		if createCmd.NArg() < 1 {
			fmt.Println("Error: Missing migration description")
			createCmd.Usage()
			os.Exit(1)
		}
		createNewMigration(*migrationsDir, createCmd.Arg(0))

	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		applyMigrations(*driver, *dsn, *migrateDir)

	case "help":
		printUsage()

	default:
		fmt.Printf("Error: Unknown command '%s'\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migration create [-dir DIR] DESCRIPTION      - Create a new migration")
	fmt.Println("  migration migrate [-driver D] [-dsn DSN]     - Apply pending migrations")
	fmt.Println("  migration help                               - Show this help")
	fmt.Println("\nExamples:")
	fmt.Println("  migration create \"add wager index\"")
	fmt.Println("  migration migrate -driver postgres -dsn \"postgres://hall@localhost/hall?sslmode=disable\"")
}

func createNewMigration(migrationsDir, description string) {
	filePath, err := migrations.CreateMigration(migrationsDir, description)
	if err != nil {
		log.Fatalf("Error creating migration: %v", err)
	}

	fmt.Printf("Created migration file: %s\n", filePath)
	fmt.Println("Add the same change for every driver under pkg/db/migrations/sql.")
}

func applyMigrations(driver, dsn, migrationsDir string) {
	db, err := walletRepo.Open(driver, dsn, 5*time.Second)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	migrator := migrations.NewEmbeddedMigrator(db)
	if migrationsDir != "" {
		migrator = migrations.NewMigrator(db, migrationsDir)
	}

	if err := migrator.MigrateUp(); err != nil {
		log.Fatalf("Error applying migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
