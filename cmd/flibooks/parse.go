package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emzola/flibooks/service"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Load every index file of an INPX archive into the search backend",
		ArgsUsage: "<file.inpx>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "inpx",
				Usage: "INPX archive to ingest",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Do not draw a progress bar",
			},
		},
		Action: parse,
	}
}

func parse(ctx context.Context, c *cli.Command) error {
	path := c.String("inpx")
	if path == "" {
		path = c.Args().First()
	}
	if path == "" {
		return errors.New("parse: an INPX archive is required")
	}

	a, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress service.Progress
	if !c.Bool("quiet") {
		bar := progressbar.DefaultBytes(-1, "ingesting")
		defer bar.Finish()
		progress = bar
	}

	report, err := a.service.Ingest(ctx, path, progress)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\nindexed %d documents from %d index files; %d documents and %d files failed\n",
		report.Documents, report.Files, report.FailedDocuments, report.FailedFiles)
	return nil
}
