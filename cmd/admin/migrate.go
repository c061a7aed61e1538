package main

import (
	"context"

	"edusync/internal/store"
)

var runMigrationsFunc = (*store.DB).RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	return runMigrationsFunc(cli.db, context.Background(), args[0], args[1:]...)
}
