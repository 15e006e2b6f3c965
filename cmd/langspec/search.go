package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/langspec"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	citations, err := deps.Sections.SearchSections(deps.Ctx, c.Query, langspec.SearchOptions{
		Language:   c.Language,
		Version:    c.Version,
		Doc:        c.Doc,
		PathPrefix: c.Prefix,
		Limit:      c.Limit,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", langspec.ErrorMessage(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(citations)
	}

	if len(citations) == 0 {
		fmt.Fprintf(deps.Stdout, "No sections match %q.\n", c.Query)
		return nil
	}
	for i, cit := range citations {
		fmt.Fprintf(deps.Stdout, "%d. %s [%s]\n", i+1, cit.Title, cit.SectionID)
		if cit.SectionPath != "" && cit.SectionPath != cit.Title {
			fmt.Fprintf(deps.Stdout, "   %s\n", cit.SectionPath)
		}
		fmt.Fprintf(deps.Stdout, "   %s\n", cit.URL)
		if cit.Snippet.Text != "" {
			fmt.Fprintf(deps.Stdout, "   %s\n", cit.Snippet.Text)
		}
	}
	return nil
}
