package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"budgetbook/internal/cli"
	"budgetbook/internal/log"
)

const usage = `Usage: ledger <command> [flags]

Commands:
  add         add a transaction
  update      replace the transaction at an index
  remove      remove the first matching transaction
  list        print all transactions
  weekly      print expense totals per ISO week
  categories  print expense totals per category
  summary     print the ledger summary (-prompt for report text)
  register    store a username and password
  login       check a username and password
  serve       run the HTTP server

Configuration is read from the environment (and .env).
`

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"add":        runAdd,
	"update":     runUpdate,
	"remove":     runRemove,
	"list":       runList,
	"weekly":     runWeekly,
	"categories": runCategories,
	"summary":    runSummary,
	"register":   runRegister,
	"login":      runLogin,
	"serve":      runServe,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stdout, usage)
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.GracefulShutdown(context.Background(), logger)
	defer stop()

	a, err := openApp(ctx, cfg, logger, stdout, args[0] == "serve")
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldOperation, log.OpStartup, log.FieldError, err)
		return 1
	}
	defer a.close()

	if err := cmd(ctx, a, args[1:]); err != nil {
		logger.Error("Command failed", "command", args[0], log.FieldError, err)
		return 1
	}
	return 0
}
