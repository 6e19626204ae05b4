package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/zouuup/memtarget/internal/fixture"
	"github.com/zouuup/memtarget/internal/output"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:  "memtarget",
		Usage: "Hold a known record in memory for external inspection",
		Description: "A fixture process that keeps a fixed-layout record (marker 0x13371337, ratio 3.14159, " +
			"coordinates 1, 2, 3) alive for a fixed time and prints its PID so a memory reader can attach",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "hold",
				Aliases: []string{"H"},
				Usage:   "How long to keep the record alive",
				Value:   fixture.DefaultHold,
			},
			&cli.BoolFlag{
				Name:    "lock",
				Aliases: []string{"l"},
				Usage:   "Pin the record's page in RAM with mlock",
				Value:   false,
			},
			&cli.BoolFlag{
				Name:  "locate",
				Usage: "Print the record's address and the mapping that holds it",
				Value: false,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose logging",
				Value:   false,
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output results in JSON format",
				Value:   false,
			},
		},
		Action: func(c *cli.Context) error {
			return run(c, stdout, stderr)
		},
	}
}

func run(c *cli.Context, stdout, stderr io.Writer) error {
	if c.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", c.Args().Slice())
	}

	hold := c.Duration("hold")
	if err := validateHold(hold); err != nil {
		return err
	}

	out := output.New(stdout, stderr, c.Bool("verbose"), c.Bool("json"))

	cfg := fixture.Config{
		Hold:   hold,
		Lock:   c.Bool("lock"),
		Locate: c.Bool("locate"),
	}

	return fixture.Run(cfg, out)
}

// validateHold rejects durations the fixture cannot honour
func validateHold(hold time.Duration) error {
	if hold <= 0 {
		return fmt.Errorf("invalid hold duration %s: must be positive", hold)
	}
	return nil
}
