package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/paperbase/paperbase/pkg/database"
	"github.com/paperbase/paperbase/pkg/models"
)

func main() {
	driver := flag.String("driver", "postgres", "Database driver (postgres|sqlite)")
	host := flag.String("host", "localhost", "Database host (postgres)")
	port := flag.Int("port", 5432, "Database port (postgres)")
	user := flag.String("user", "paperbase", "Database user (postgres)")
	password := flag.String("password", "", "Database password (postgres)")
	dbname := flag.String("dbname", "paperbase", "Database name (postgres)")
	sslmode := flag.String("sslmode", "disable", "Database SSL mode (postgres)")
	path := flag.String("path", "", "Database file path (sqlite)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Paperbase schema migration tool.\n\n")
		fmt.Fprintf(os.Stderr, "Creates or updates every table the document stores use.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n\n")
		fmt.Fprintf(os.Stderr, "  PostgreSQL:\n")
		fmt.Fprintf(os.Stderr, "    %s -driver=postgres -host=localhost -user=paperbase -dbname=paperbase\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  SQLite:\n")
		fmt.Fprintf(os.Stderr, "    %s -driver=sqlite -path=.paperbase/paperbase.db\n\n", os.Args[0])
	}
	flag.Parse()

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "paperbase-migrate",
		Level: hclog.Info,
	})

	if *driver == "sqlite" && *path == "" {
		log.Error("-path is required with the sqlite driver")
		os.Exit(1)
	}

	db, err := database.Connect(database.Config{
		Driver:   *driver,
		Host:     *host,
		Port:     *port,
		User:     *user,
		Password: *password,
		DBName:   *dbname,
		SSLMode:  *sslmode,
		Path:     *path,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	log.Info("running migrations")
	if err := db.AutoMigrate(models.ModelsToAutoMigrate()...); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	log.Info("all migrations completed")
}
