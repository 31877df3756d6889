package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scribe/internal/app"
)

var enhanceArticleID string

var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "Enhance one article (--id) or every article not yet enhanced",
	RunE:  runEnhance,
}

func init() {
	enhanceCmd.Flags().StringVar(&enhanceArticleID, "id", "", "Enhance only this article, even if already enhanced")
}

func runEnhance(cmd *cobra.Command, args []string) error {
	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	if enhanceArticleID != "" {
		article, err := application.EnhancerService.EnhanceArticle(cmd.Context(), enhanceArticleID)
		if err != nil {
			return err
		}
		return printJSON(article)
	}

	result, err := application.EnhancerService.EnhanceAll(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(result)
}
