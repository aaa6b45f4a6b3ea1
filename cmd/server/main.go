package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	envErr := godotenv.Load()

	app := newCLI()
	app.Before = func(c *cli.Context) error {
		if envErr != nil {
			fmt.Fprintln(os.Stderr, "Could not load .env file, using process environment")
		}
		return nil
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "jobseek",
		Usage: "AI job board: ingest postings, embed them and serve semantic search",
		Commands: []*cli.Command{
			{
				Name:   "bootstrap",
				Usage:  "Create extensions, tables and the vector index",
				Action: bootstrapCommand,
			},
			{
				Name:   "ingest",
				Usage:  "Fetch all configured job boards once, store AI roles and embed them",
				Action: ingestCommand,
			},
			{
				Name:   "embed",
				Usage:  "Embed every job whose embedding is missing or stale",
				Action: embedCommand,
			},
			{
				Name:   "api",
				Usage:  "Serve the HTTP API",
				Action: apiCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "port",
						Usage: "Listen address, overrides APP_PORT",
					},
					&cli.BoolFlag{
						Name:  "no-scheduler",
						Usage: "Do not start the periodic ingest even when SCRAPE_INTERVAL is set",
					},
				},
			},
		},
	}
}
