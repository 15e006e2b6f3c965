package main

import (
	"context"
	"io"

	"github.com/fwojciec/langspec"
	"github.com/fwojciec/langspec/prometheus"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Config   *langspec.Config
	Sections langspec.SectionService
	Ingest   langspec.IngestService
	Metrics  *prometheus.Metrics
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Ingest    IngestCmd    `cmd:"" help:"Fetch and index specification sources"`
	Languages LanguagesCmd `cmd:"" help:"List configured and indexed languages"`
	Versions  VersionsCmd  `cmd:"" help:"List indexed versions of a language"`
	Search    SearchCmd    `cmd:"" help:"Search a language specification"`
	Section   SectionCmd   `cmd:"" help:"Show one section of a specification"`
}

// IngestCmd is the "ingest" subcommand.
type IngestCmd struct {
	Names       []string `arg:"" optional:"" help:"Source names to ingest (default: all)"`
	Concurrency int      `short:"c" default:"1" help:"Sources ingested in parallel"`
	MetricsFile string   `name:"metrics-file" help:"Write Prometheus metrics to this file after the run"`
}

// LanguagesCmd is the "languages" subcommand.
type LanguagesCmd struct{}

// VersionsCmd is the "versions" subcommand.
type VersionsCmd struct {
	Language string `arg:"" help:"Language name"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Language string `arg:"" help:"Language name"`
	Query    string `arg:"" help:"Full-text query"`
	Version  string `help:"Snapshot version (default: latest)"`
	Doc      string `help:"Restrict to one doc of the language"`
	Prefix   string `help:"Restrict to sections whose path starts with this prefix"`
	Limit    int    `short:"n" default:"10" help:"Maximum number of results (1-50)"`
	JSON     bool   `name:"json" help:"Print results as JSON"`
}

// SectionCmd is the "section" subcommand.
type SectionCmd struct {
	Language  string `arg:"" help:"Language name"`
	Version   string `arg:"" help:"Snapshot version, or 'latest'"`
	SectionID string `arg:"" help:"Section identifier"`
	JSON      bool   `name:"json" help:"Print the section as JSON"`
}
