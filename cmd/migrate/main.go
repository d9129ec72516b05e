package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"github.com/crushpad/terminal-service/internal/config"
)

func main() {
	_ = godotenv.Load()

	var (
		path = flag.String("path", "migrations", "path to migration files")
		down = flag.Bool("down", false, "roll back the most recent migration")
	)
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// The pgx/v5 migrate driver expects a pgx5:// scheme
	databaseURL := "pgx5://" + trimScheme(cfg.Database.ConnectionString())

	m, err := migrate.New(fmt.Sprintf("file://%s", *path), databaseURL)
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}
	defer m.Close()

	if *down {
		if err := m.Steps(-1); err != nil {
			log.Fatalf("failed to roll back migration: %v", err)
		}
		log.Println("rolled back one migration")
		return
	}

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Println("database is up to date")
			os.Exit(0)
		}
		log.Fatalf("failed to apply migrations: %v", err)
	}

	log.Println("migrations applied successfully")
}

func trimScheme(url string) string {
	const prefix = "postgres://"
	if len(url) > len(prefix) && url[:len(prefix)] == prefix {
		return url[len(prefix):]
	}
	return url
}
