package main

import (
	"context"
	"os"
	"strings"

	"github.com/emzola/flibooks/config"
	_ "github.com/emzola/flibooks/docs"
	"github.com/emzola/flibooks/internal/jsonlog"
	"github.com/urfave/cli/v3"
)

// @title  Flibooks API
// @version 1.0.0
// @description Search and download service for INPX book catalogs.
// @license.name MIT
// @BasePath /
func main() {
	// Fallback logger for failures before or outside the configured one.
	logger := jsonlog.New(os.Stderr, jsonlog.LevelInfo)

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		logger.PrintFatal(err, map[string]string{
			"command": commandName(os.Args[1:]),
		})
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "flibooks",
		Usage: "Index an INPX book catalog into Elasticsearch and serve it over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path, " + config.EnvPath + " when unset",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			parseCommand(),
			serveCommand(),
			envCommand(),
		},
		Action: serve,
	}
}

// commandName picks the subcommand out of the arguments, skipping global
// flags. No subcommand means serve.
func commandName(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config" || arg == "-config":
			i++
		case strings.HasPrefix(arg, "-"):
		case arg == "parse" || arg == "serve" || arg == "env":
			return arg
		default:
			return "serve"
		}
	}
	return "serve"
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP API (default)",
		Action: serve,
	}
}

func envCommand() *cli.Command {
	return &cli.Command{
		Name:  "env",
		Usage: "List the environment variables read by the configuration",
		Action: func(ctx context.Context, c *cli.Command) error {
			return config.Usage(os.Stdout)
		},
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	a, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer a.close()
	return a.serve()
}
