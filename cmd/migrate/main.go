package main

import (
	"context"
	"flag"
	"os"

	"bookshelf/internal/config"
	"bookshelf/internal/dbmigrate"
	"bookshelf/internal/platform/logger"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
		dir     = flag.String("dir", dbmigrate.Dir(), "Migrations directory")
	)
	flag.Parse()

	config.LoadEnvFiles()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dsn := config.DefaultConfig().DBDSN
	if v := os.Getenv("DB_DSN"); v != "" {
		dsn = v
	}

	if err := dbmigrate.Run(context.Background(), dsn, *dir, *command, *name, os.Stdout); err != nil {
		log.Fatal("migration failed", "command", *command, "dsn", config.RedactDSN(dsn), "error", err)
	}
}
