package main

import (
	"os"
	"strings"

	"github.com/far4599/ytduration/internal/app"
	"github.com/far4599/ytduration/internal/config"
	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/pkg/context"
	"github.com/far4599/ytduration/internal/pkg/log"
	"github.com/far4599/ytduration/internal/service"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

func main() {
	ctx, cancel := context.NewSignalledContext()
	defer cancel()

	cliApp := newCLI()
	if err := cliApp.RunContext(ctx, reorderArgs(os.Args, cliApp)); err != nil {
		cancel()
		log.Logger.Fatalw("run failed", "error", err)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:      "ytduration",
		Usage:     "sum up the duration of YouTube videos, playlists and channels",
		ArgsUsage: "<video url | playlist url | channel url | @handle | batch file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"f"},
				Usage:   "load configuration from yaml `FILE` instead of the environment",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug messages",
			},
			minDurationFlag(),
			&cli.StringFlag{
				Name:    "save-file",
				Aliases: []string{"s"},
				Usage:   "save links of included videos to `FILE`, .json files get full records",
			},
			outputFlag(),
			&cli.BoolFlag{
				Name:  "unique",
				Usage: "count every video only once",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "show a progress spinner on stderr",
			},
		},
		Before: func(c *cli.Context) error {
			log.SetVerbose(c.Bool("verbose"))
			return nil
		},
		Action:          runSource,
		Commands:        []*cli.Command{searchCommand()},
		HideHelpCommand: true,
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "sum up the duration of keyword search results",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "language",
				Usage: "prefer results relevant to `LANG` (ISO 639-1)",
			},
			&cli.StringFlag{
				Name:    "country",
				Aliases: []string{"c"},
				Usage:   "restrict results to `CODE` (ISO 3166-1 alpha-2)",
			},
			&cli.StringFlag{
				Name:  "duration",
				Value: "any",
				Usage: "upstream duration category: any, short, medium or long",
			},
			minDurationFlag(),
			&cli.IntFlag{
				Name:    "max-results",
				Aliases: []string{"n"},
				Value:   10,
				Usage:   "number of videos to sum up, at most 50",
			},
			outputFlag(),
		},
		Action: runSearch,
	}
}

func minDurationFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "min-duration",
		Aliases: []string{"d"},
		Usage:   "only count videos at least `MINUTES` long",
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "write the formatted report to `FILE`, .json files get JSON",
	}
}

func runSource(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one source, see --help")
	}

	filter, err := filterFlag(c)
	if err != nil {
		return err
	}

	a, err := newApp(c)
	if err != nil {
		return err
	}

	return a.Run(c.Context, app.RunOptions{
		Source:     c.Args().First(),
		Filter:     filter,
		SaveFile:   c.String("save-file"),
		OutputFile: c.String("output"),
		Unique:     c.Bool("unique"),
		Progress:   c.Bool("progress"),
	})
}

func runSearch(c *cli.Context) error {
	filter, err := filterFlag(c)
	if err != nil {
		return err
	}

	opts := app.SearchOptions{
		SearchOptions: service.SearchOptions{
			Query:      strings.Join(c.Args().Slice(), " "),
			Language:   c.String("language"),
			Country:    c.String("country"),
			Duration:   c.String("duration"),
			MaxResults: c.Int("max-results"),
			Filter:     filter,
		},
		OutputFile: c.String("output"),
	}
	if err = opts.Validate(); err != nil {
		return err
	}

	a, err := newApp(c)
	if err != nil {
		return err
	}

	return a.Search(c.Context, opts)
}

func filterFlag(c *cli.Context) (models.FilterConfig, error) {
	minutes := c.Int("min-duration")
	if minutes < 0 {
		return models.FilterConfig{}, &models.ConfigurationError{Field: "min-duration", Reason: "must not be negative"}
	}

	return models.MinDurationMinutes(minutes), nil
}

func newApp(c *cli.Context) (*app.App, error) {
	conf, err := config.NewConfig(c.Context, c.String("config"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err = conf.Validate(); err != nil {
		return nil, err
	}

	client, err := app.NewClient(c.Context, conf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create youtube client")
	}

	return app.NewApp(conf, client, os.Stdout, os.Stderr), nil
}
