package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fwojciec/langspec"
)

// Run executes the languages command. Configured languages are listed in
// configuration order, followed by indexed languages no longer configured.
func (c *LanguagesCmd) Run(deps *Dependencies) error {
	indexed, err := deps.Sections.ListLanguages(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", langspec.ErrorMessage(err))
		return err
	}

	stored := make(map[string][]string, len(indexed))
	for _, info := range indexed {
		stored[info.Language] = info.Docs
	}

	for _, info := range MergeLanguages(deps.Config.Languages(), indexed) {
		docs := make([]string, len(info.Docs))
		for i, doc := range info.Docs {
			docs[i] = doc
			if !slices.Contains(stored[info.Language], doc) {
				docs[i] += " (not indexed)"
			}
		}
		name := info.DisplayName
		if name == "" {
			name = info.Language
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", info.Language, name, strings.Join(docs, ", "))
		if info.Notes != "" {
			fmt.Fprintf(deps.Stdout, "    %s\n", info.Notes)
		}
	}
	return nil
}

// MergeLanguages combines configured languages with those found in the
// store. Configured entries keep their order and metadata; stored docs
// missing from the configuration are appended.
func MergeLanguages(configured, indexed []langspec.LanguageInfo) []langspec.LanguageInfo {
	merged := make([]langspec.LanguageInfo, 0, len(configured)+len(indexed))
	index := make(map[string]int, len(configured))
	for _, info := range configured {
		info.Docs = append([]string(nil), info.Docs...)
		index[info.Language] = len(merged)
		merged = append(merged, info)
	}
	for _, info := range indexed {
		i, ok := index[info.Language]
		if !ok {
			index[info.Language] = len(merged)
			merged = append(merged, langspec.LanguageInfo{Language: info.Language, Docs: append([]string(nil), info.Docs...)})
			continue
		}
		for _, doc := range info.Docs {
			if !slices.Contains(merged[i].Docs, doc) {
				merged[i].Docs = append(merged[i].Docs, doc)
			}
		}
	}
	return merged
}
