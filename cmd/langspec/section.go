package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/langspec"
)

// Run executes the section command.
func (c *SectionCmd) Run(deps *Dependencies) error {
	version := c.Version
	if version == "latest" {
		version = ""
	}

	result, err := deps.Sections.GetSection(deps.Ctx, c.Language, version, c.SectionID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", langspec.ErrorMessage(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	cit := result.Citation
	fmt.Fprintf(deps.Stdout, "%s\n%s\n%s %s\n\n", cit.Title, cit.URL, cit.Language, cit.Version)
	if result.Content.FulltextAvailable {
		fmt.Fprintln(deps.Stdout, result.Content.Fulltext)
		return nil
	}
	fmt.Fprintln(deps.Stdout, result.Content.Excerpt)
	if result.Content.IsTruncated {
		fmt.Fprintln(deps.Stdout, "\n(excerpt only; see the source for the full text)")
	}
	return nil
}
