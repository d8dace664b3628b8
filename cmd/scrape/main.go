// pricetrawl scrape CLI
//
// Usage:
//   scrape https://store.example.com/category --percent-off 10
//   scrape --urls-file urls.txt --out report.xlsx
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"pricetrawl/helpers"
	"pricetrawl/internal/fetch"
	"pricetrawl/internal/scrape"
	"pricetrawl/logger"
	"pricetrawl/services/export"
)

func main() {
	godotenv.Load()

	// Logs go to stderr so stdout stays parseable CSV
	logger.InitWriter(os.Stderr)

	app := &cli.App{
		Name:      "scrape",
		Usage:     "Scrape product prices from storefront pages",
		ArgsUsage: "[urls...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "urls",
				Aliases: []string{"u"},
				Usage:   "Newline separated URLs to scrape",
			},
			&cli.StringFlag{
				Name:  "urls-file",
				Usage: "File with one URL per line",
			},
			&cli.Float64Flag{
				Name:  "percent-off",
				Usage: "Percent discount applied to extracted prices",
			},
			&cli.Float64Flag{
				Name:  "absolute-off",
				Usage: "Absolute discount applied after the percent discount",
			},
			&cli.IntFlag{
				Name:  "max-pages",
				Value: 20,
				Usage: "Maximum listing pages to walk per URL",
			},
			&cli.IntFlag{
				Name:  "delay-ms",
				Value: 400,
				Usage: "Delay between listing page fetches in milliseconds",
			},
			&cli.IntFlag{
				Name:  "retries",
				Value: 3,
				Usage: "Retry attempts for transient fetch failures",
			},
			&cli.BoolFlag{
				Name:  "no-pagination",
				Usage: "Scrape only the first page of listings",
			},
			&cli.BoolFlag{
				Name:  "insecure",
				Usage: "Skip TLS certificate verification",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write results to a .csv or .xlsx file instead of stdout",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	urls := helpers.SplitLines(c.String("urls"))
	if path := c.String("urls-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read urls file: %w", err)
		}
		urls = append(urls, helpers.SplitLines(string(data))...)
	}
	for _, arg := range c.Args().Slice() {
		if arg = strings.TrimSpace(arg); arg != "" {
			urls = append(urls, arg)
		}
	}
	urls = helpers.Dedupe(urls)
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given; pass them as arguments, --urls, or --urls-file")
	}

	client := fetch.New(fetch.Options{
		Retries:   c.Int("retries"),
		VerifySSL: !c.Bool("insecure"),
	})
	scraper := scrape.New(client, scrape.Config{
		Rules: scrape.Rules{
			PercentOff:  c.Float64("percent-off"),
			AbsoluteOff: c.Float64("absolute-off"),
		},
		FollowPagination: !c.Bool("no-pagination"),
		MaxPages:         c.Int("max-pages"),
		Delay:            time.Duration(c.Int("delay-ms")) * time.Millisecond,
	})

	items := scraper.ScrapeBatch(c.Context, urls)

	return writeItems(items, c.String("out"))
}

// writeItems renders items as CSV or XLSX picked by the output extension.
// An empty path streams CSV to stdout.
func writeItems(items []scrape.Item, out string) error {
	if out == "" {
		data, err := export.ItemsCSV(items)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(out)) {
	case ".xlsx":
		data, err = export.ItemsWorkbook(items)
	case ".csv":
		data, err = export.ItemsCSV(items)
	default:
		return fmt.Errorf("unsupported output extension %q; use .csv or .xlsx", filepath.Ext(out))
	}
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o644)
}
