package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/langspec"
)

// Run executes the versions command.
func (c *VersionsCmd) Run(deps *Dependencies) error {
	versions, err := deps.Sections.ListVersions(deps.Ctx, c.Language)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", langspec.ErrorMessage(err))
		if langspec.ErrorCode(err) == langspec.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "Run 'langspec ingest %s' first.\n", c.Language)
		}
		return err
	}

	for _, v := range versions {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s\n", v.Version, v.Doc, v.FetchedAt.Format(time.RFC3339), v.SourceURL)
	}
	return nil
}
