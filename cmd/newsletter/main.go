package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"AINewsletter/internal/app"
	"AINewsletter/internal/config"
	"AINewsletter/internal/logging"
	"AINewsletter/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := run(ctx, os.Args, os.Stdout)
	stop()
	os.Exit(code)
}

// run executes the command line and maps its outcome to a process exit code.
func run(ctx context.Context, args []string, stdout io.Writer) int {
	cliApp := newCLI()
	cliApp.Writer = stdout
	if err := cliApp.RunContext(ctx, args); err != nil {
		return 1
	}
	return 0
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "newsletter",
		Usage: "collect AI news, summarize it and write a humorous newsletter",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to the YAML configuration"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the newsletter to this file"},
			&cli.StringFlag{Name: "format", Usage: "output format: markdown or html"},
			&cli.IntFlag{Name: "max-articles", Usage: "maximum number of articles to collect"},
			&cli.IntFlag{Name: "workers", Usage: "articles processed in parallel"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "humor-on-failure", Usage: "fallback or drop when the humor rewrite fails"},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		logging.New(c.String("log-level")).Error("load configuration", "error", err)
		return err
	}
	cfg.Apply(config.Overrides{
		OutputPath:     c.String("output"),
		Format:         c.String("format"),
		LogLevel:       c.String("log-level"),
		HumorOnFailure: c.String("humor-on-failure"),
		MaxArticles:    c.Int("max-articles"),
		Workers:        c.Int("workers"),
	})

	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	res, err := application.Run(c.Context)
	if err != nil {
		stage, _ := usecase.FailedStage(err)
		logger.Error("application stopped", "stage", stage, "error", err)
		return err
	}

	if res.Path == "" {
		logger.Info("no newsletter written", "discovered", res.Discovered, "dropped", res.Dropped)
		return nil
	}
	_, err = fmt.Fprintln(c.App.Writer, res.Path)
	return err
}
