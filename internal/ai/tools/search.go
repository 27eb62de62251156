package tools

import (
	"context"
	"fmt"
	"strings"
)

func (t *Tools) Search(ctx context.Context, query string, maxResults int, timeLimit string) (string, error) {
	if query == "" {
		return "", fmt.Errorf("query is mandatory")
	}
	if maxResults < 3 {
		maxResults = 3
	}
	if maxResults > 10 {
		maxResults = 10
	}

	results, err := t.search.Text(query, "", timeLimit, maxResults)
	if err != nil {
		return "", err
	}

	if len(results) == 0 {
		return "Not found", nil
	}

	list := make([]string, 0, len(results))
	for i, result := range results {
		list = append(list, fmt.Sprintf("%d. Title: %s\nDescription: %s\nLink: %s", i+1, result.Title, result.Body, result.Href))
	}

	return fmt.Sprintf("Found %d results:\n\n%s", len(results), strings.Join(list, "\n\n")), nil
}
