package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"edusync/internal/school"
	"edusync/internal/store"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db  *store.DB
	svc *school.Service
	out io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, version, redo, reset, up-to N, down-to N)")
	fmt.Fprintln(cli.out, "  seed - insert the sample students and tasks into an empty database")
	fmt.Fprintln(cli.out, "  deactivate-task -id ID - hide a task from listings and recommendations")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	deactivateCmd := flag.NewFlagSet("deactivate-task", flag.ContinueOnError)
	deactivateCmd.SetOutput(cli.out)
	deactivateID := deactivateCmd.Int64("id", 0, "The id of the task to deactivate.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seed":
		return cli.seed()
	case "deactivate-task":
		if err := deactivateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deactivateID <= 0 {
			deactivateCmd.Usage()
			return errHelp
		}
		return cli.deactivateTask(*deactivateID)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) seed() error {
	ctx := context.Background()
	if err := cli.db.Migrate(ctx); err != nil {
		return err
	}
	seeded, err := cli.svc.EnsureSeeded(ctx)
	if err != nil {
		return err
	}
	if seeded {
		fmt.Fprintln(cli.out, "sample data seeded")
	} else {
		fmt.Fprintln(cli.out, "students already present, nothing seeded")
	}
	return nil
}

func (cli *commandLine) deactivateTask(id int64) error {
	if err := cli.svc.DeactivateTask(context.Background(), id); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "task %d deactivated\n", id)
	return nil
}
