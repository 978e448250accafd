// Package docs serves the embedded rule documentation pages.
package docs

import (
	"embed"
	"fmt"
	"path"
	"strings"
)

//go:embed content
var content embed.FS

// GetPagesContent returns every rule documentation page, keyed by rule id,
// with the front matter stripped.
func GetPagesContent() map[string]string {
	pages := map[string]string{}
	entries, err := content.ReadDir(path.Join("content", "rules"))
	if err != nil {
		return pages
	}

	for _, entry := range entries {
		ruleID := strings.TrimSuffix(entry.Name(), ".md")
		page, err := GetPage(ruleID)
		if err != nil {
			continue
		}
		pages[ruleID] = page
	}

	return pages
}

func GetPage(ruleID string) (string, error) {
	doc, err := content.ReadFile(path.Join("content", "rules", ruleID+".md"))
	if err != nil {
		return "", err
	}

	parts := strings.SplitAfterN(string(doc), "---\n", 3)
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid doc page %s.md", ruleID)
	}

	return strings.TrimSpace(parts[2]), nil
}
