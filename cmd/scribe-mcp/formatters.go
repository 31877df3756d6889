package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/scribe/internal/models"
)

// formatArticleList formats articles as a markdown list
func formatArticleList(articles []*models.Article, pendingOnly bool) string {
	var sb strings.Builder

	shown := 0
	for _, article := range articles {
		if pendingOnly && article.IsUpdated {
			continue
		}
		shown++
		state := "pending"
		if article.IsUpdated {
			state = "enhanced"
		}
		sb.WriteString(fmt.Sprintf("- **%s** (`%s`, %s)\n  %s\n", article.Title, article.ID, state, article.SourceURL))
	}

	header := fmt.Sprintf("## Articles (%d)\n\n", shown)
	if shown == 0 {
		return header + "No articles found.\n"
	}
	return header + sb.String()
}

// formatArticle formats a single article as markdown
func formatArticle(article *models.Article) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", article.Title))
	sb.WriteString(fmt.Sprintf("**ID:** %s\n", article.ID))
	sb.WriteString(fmt.Sprintf("**Source:** %s\n", article.SourceURL))
	sb.WriteString(fmt.Sprintf("**Enhanced:** %t\n", article.IsUpdated))
	sb.WriteString(fmt.Sprintf("**Updated:** %s\n\n", article.UpdatedAt.Format(time.RFC3339)))

	if refs := article.ReferenceList(); len(refs) > 0 {
		sb.WriteString("**References:**\n")
		for _, ref := range refs {
			sb.WriteString("- " + ref + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString(article.DisplayContent())
	sb.WriteString("\n")
	return sb.String()
}

// formatStatus formats the run state snapshot
func formatStatus(state models.RunState, articleCount int) string {
	var sb strings.Builder
	sb.WriteString("## Pipeline Status\n\n")
	sb.WriteString(fmt.Sprintf("**State:** %s\n", state.State))
	sb.WriteString(fmt.Sprintf("**Articles:** %d\n", articleCount))
	if state.StartedAt != nil {
		sb.WriteString(fmt.Sprintf("**Started:** %s\n", state.StartedAt.Format(time.RFC3339)))
	}
	if state.LastRun != nil {
		sb.WriteString(fmt.Sprintf("**Last run:** %s finished %s\n", state.LastRun.Kind, state.LastRun.FinishedAt.Format(time.RFC3339)))
		if state.LastRun.Error != "" {
			sb.WriteString(fmt.Sprintf("**Last error:** %s\n", state.LastRun.Error))
		}
	}
	return sb.String()
}
