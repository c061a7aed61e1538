package main

import (
	"context"
	"os"

	"edusync/internal/config"
	"edusync/internal/logging"
	"edusync/internal/school"
	"edusync/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Env, cfg.LogLevel, cfg.LogFormat).With("component", "admin")

	// set up DB
	db, err := store.Open(context.Background(), cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("could not open database", "error", err)
		os.Exit(1)
	}

	// start CLI
	cli := commandLine{
		db:  db,
		svc: school.NewService(db, school.NewRepository(), school.NewRandomSelector()),
		out: os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", "error", err)
		}
		os.Exit(1)
	}
}
