package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"weekbudget/internal/cli"
	"weekbudget/internal/log"
)

const usage = `Usage: weekbudget [-config path] [command] [flags]

Commands:
  report              print or write the report for the configured week (default)
  weeks -year Y [-month M]
                      list the month-clipped week segments of a year or month
  snapshot [-db path] copy the configured budget's month into a sqlite file
`

func main() {
	cli.LoadEnvFile()

	global := flag.NewFlagSet("weekbudget", flag.ExitOnError)
	configPath := global.String("config", "", "path to config.json (default $WEEKBUDGET_CONFIG or ./config.json)")
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	_ = global.Parse(os.Args[1:])

	command := "report"
	args := global.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "weeks":
		runWeeks(args)
	case "report", "snapshot":
		runWithConfig(command, *configPath, args)
	case "help":
		global.Usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		global.Usage()
		os.Exit(2)
	}
}

func runWeeks(args []string) {
	fs := flag.NewFlagSet("weeks", flag.ExitOnError)
	year := fs.Int("year", time.Now().Year(), "calendar year")
	month := fs.Int("month", 0, "month 1-12; omit to list the whole year")
	_ = fs.Parse(args)

	if err := cli.RunWeeks(os.Stdout, *year, *month); err != nil {
		cli.Fatal(nil, "weeks", err)
	}
}

func runWithConfig(command, configPath string, args []string) {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	dbPath := fs.String("db", "", "snapshot database path (default: sqlitePath from config)")
	_ = fs.Parse(args)

	cfg, err := cli.LoadAndValidateConfig(configPath)
	if err != nil {
		cli.Fatal(nil, "Configuration error", err)
	}
	logger, err := cli.SetupLogger(cfg)
	if err != nil {
		cli.Fatal(nil, "Logger setup failed", err)
	}

	ctx, cancel := cli.InterruptContext(logger)
	defer cancel()

	app := cli.NewApp(cfg, logger)
	switch command {
	case "snapshot":
		err = app.RunSnapshot(ctx, *dbPath)
	default:
		err = app.RunReport(ctx)
	}
	if err != nil {
		cancel()
		cli.Fatal(logger, fmt.Sprintf("%s failed", command), err)
	}
	logger.Debug("Done", log.FieldOperation, command)
}
