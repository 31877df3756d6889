package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scribe/internal/app"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run one acquisition pass and exit",
	Long:  `Crawls the listing pages from the configured seed URL and stores the newest articles that are not already stored.`,
	RunE:  runCrawl,
}

func runCrawl(cmd *cobra.Command, args []string) error {
	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	result, err := application.AcquisitionService.Acquire(cmd.Context())
	if err != nil {
		return err
	}

	return printJSON(result)
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
