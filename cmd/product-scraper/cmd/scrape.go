package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"product-scraper/internal/app"
	"product-scraper/internal/config"
	"product-scraper/internal/observability"
	"product-scraper/internal/scraper"
)

type scrapeFlags struct {
	url           string
	pages         int
	selectorsFile string
	container     string
	title         string
	price         string
	rating        string
	xlsx          string
	noDB          bool
	noXLSX        bool
}

var scrapeOpts scrapeFlags

func init() {
	f := scrapeCmd.Flags()
	f.StringVar(&scrapeOpts.url, "url", "", "search results URL (overrides pagination.base_url)")
	f.IntVar(&scrapeOpts.pages, "pages", 0, "number of pages to scrape (overrides pagination.pages)")
	f.StringVar(&scrapeOpts.selectorsFile, "selectors", "", "selectors YAML file (overrides selectors_file)")
	f.StringVar(&scrapeOpts.container, "container", "", "product container selector")
	f.StringVar(&scrapeOpts.title, "title", "", "title selector")
	f.StringVar(&scrapeOpts.price, "price", "", "price selector")
	f.StringVar(&scrapeOpts.rating, "rating", "", "rating selector")
	f.StringVar(&scrapeOpts.xlsx, "xlsx", "", "spreadsheet output path (overrides spreadsheet.path)")
	f.BoolVar(&scrapeOpts.noDB, "no-db", false, "do not write to the database")
	f.BoolVar(&scrapeOpts.noXLSX, "no-xlsx", false, "do not write the spreadsheet")

	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrapes the configured pages, prints the records and saves them to the enabled sinks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		target, err := buildTarget(cfg, scrapeOpts)
		if err != nil {
			return err
		}

		logger := observability.NewLogger(cfg.Observability.LogPath, cfg.Observability.LogLevel)
		defer func() {
			_ = logger.Close()
		}()

		ctx, cancel := app.GracefulShutdown(cmd.Context(), logger)
		defer cancel()

		orch := app.NewOrchestrator(cfg, logger, app.NewSessionOpener(cfg, logger))

		run, err := orch.Scrape(ctx, target)
		if err != nil {
			return fmt.Errorf("scrape failed: %w", err)
		}

		app.RenderDataset(cmd.OutOrStdout(), run.Dataset)

		sinks, err := app.BuildSinks(cfg, logger)
		if err != nil {
			return err
		}
		defer app.CloseSinks(sinks, logger)

		var errs []error
		for _, sink := range sinks {
			if err := orch.Save(ctx, sink); err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d records to %s\n", len(run.Dataset), sink.Name())
		}
		return errors.Join(errs...)
	},
}

// loadConfig читает конфиг; отсутствие файла по умолчанию не ошибка
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(configPath); err != nil && !cmd.Flags().Changed("config") {
		cfg = config.Default()
	} else {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if scrapeOpts.url != "" {
		cfg.Pagination.BaseURL = scrapeOpts.url
	}
	if scrapeOpts.pages != 0 {
		cfg.Pagination.Pages = scrapeOpts.pages
	}
	if scrapeOpts.xlsx != "" {
		cfg.Spreadsheet.Path = scrapeOpts.xlsx
	}
	if scrapeOpts.noDB {
		cfg.Storage.Driver = ""
	}
	if scrapeOpts.noXLSX {
		cfg.Spreadsheet.Path = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildTarget собирает цель скрейпа: селекторы из файла, поверх них флаги
func buildTarget(cfg *config.Config, opts scrapeFlags) (app.Target, error) {
	var selectors scraper.SelectorSet

	path := cfg.SelectorsPath()
	if opts.selectorsFile != "" {
		path = opts.selectorsFile
	}
	if path != "" {
		loaded, err := config.LoadSelectors(path)
		if err != nil {
			return app.Target{}, err
		}
		selectors = *loaded
	}

	if opts.container != "" {
		selectors.Container = opts.container
	}
	if opts.title != "" {
		selectors.Title = opts.title
	}
	if opts.price != "" {
		selectors.Price = opts.price
	}
	if opts.rating != "" {
		selectors.Rating = opts.rating
	}

	target := app.Target{
		BaseURL:   cfg.Pagination.BaseURL,
		Pages:     cfg.Pagination.Pages,
		Selectors: selectors,
	}
	return target, target.Validate()
}
