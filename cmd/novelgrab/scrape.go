package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/use-agent/novelgrab/browser"
	"github.com/use-agent/novelgrab/config"
	"github.com/use-agent/novelgrab/models"
	"github.com/use-agent/novelgrab/runner"
	"github.com/use-agent/novelgrab/ui"
)

var (
	flagMode     string
	flagMax      int
	flagHeadless bool
	flagOutput   string
	flagEngine   string
	flagRange    string
	flagList     string
	flagFormat   string
	flagProgress bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [url]",
	Short: "Scrape the chapters of a novel into the output directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().StringVar(&flagMode, "mode", config.ModeBulk, "bulk or sequential")
	scrapeCmd.Flags().IntVar(&flagMax, "max", 0, "maximum chapters to scrape (0 for all)")
	scrapeCmd.Flags().BoolVar(&flagHeadless, "headless", false, "run the browser headless")
	scrapeCmd.Flags().StringVar(&flagOutput, "output", "", "output root directory")
	scrapeCmd.Flags().StringVar(&flagEngine, "engine", config.EngineRod, "page engine: rod or http")
	scrapeCmd.Flags().StringVar(&flagRange, "range", "", "chapter positions to scrape (e.g. 5-12)")
	scrapeCmd.Flags().StringVar(&flagList, "list", "", "chapter positions to scrape (e.g. 1,3,5)")
	scrapeCmd.Flags().StringVar(&flagFormat, "format", config.FormatText, "output format: txt or md")
	scrapeCmd.Flags().BoolVar(&flagProgress, "progress", false, "show a progress bar instead of per-chapter lines")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyScrapeFlags(cmd, cfg)

	var target string
	if len(args) == 1 {
		target = args[0]
	} else {
		a, err := ask(!cmd.Flags().Changed("headless"))
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		target = a.URL
		if !cmd.Flags().Changed("max") {
			cfg.Scraper.MaxChapters = a.Max
		}
		if !cmd.Flags().Changed("headless") {
			cfg.Browser.Headless = a.Headless
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	console := ui.NewConsole(os.Stdout)
	var reporter runner.Reporter = console
	if flagProgress {
		reporter = ui.NewProgress(os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err = runner.New(cfg, opener(cfg), reporter).Run(ctx, target)
	if models.IsFatal(err) {
		console.Fatal(err)
	}
	return err
}

// applyScrapeFlags overrides cfg with the flags given on the command line.
func applyScrapeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("mode") {
		cfg.Scraper.Mode = flagMode
	}
	if f.Changed("max") {
		cfg.Scraper.MaxChapters = flagMax
	}
	if f.Changed("headless") {
		cfg.Browser.Headless = flagHeadless
	}
	if f.Changed("output") {
		cfg.Output.Dir = flagOutput
	}
	if f.Changed("engine") {
		cfg.Browser.Engine = flagEngine
	}
	if f.Changed("range") {
		cfg.Scraper.Range = flagRange
	}
	if f.Changed("list") {
		cfg.Scraper.List = flagList
	}
	if f.Changed("format") {
		cfg.Output.Format = flagFormat
	}
}

func opener(cfg *config.Config) runner.Opener {
	if cfg.Browser.Engine == config.EngineHTTP {
		return func(context.Context) (browser.Session, error) {
			return browser.NewStaticSession(browser.NewHTTPFetcher(cfg.Browser.Proxy, cfg.Browser.Headers)), nil
		}
	}
	return func(context.Context) (browser.Session, error) {
		sess, err := browser.Launch(cfg.Browser)
		if err != nil {
			return nil, err
		}
		return sess, nil
	}
}
