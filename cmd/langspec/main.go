package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/langspec"
	"github.com/fwojciec/langspec/backoff"
	"github.com/fwojciec/langspec/fs"
	"github.com/fwojciec/langspec/github"
	"github.com/fwojciec/langspec/goldmark"
	"github.com/fwojciec/langspec/goquery"
	lshttp "github.com/fwojciec/langspec/http"
	"github.com/fwojciec/langspec/ingest"
	"github.com/fwojciec/langspec/prometheus"
	lsslog "github.com/fwojciec/langspec/slog"
	"github.com/fwojciec/langspec/sqlite"
	"github.com/fwojciec/langspec/yaml"
	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Paths and credentials. Set before calling Run().
	DBPath      string
	CacheDir    string
	SourcesPath string // empty uses the built-in sources
	GitHubToken string
	LogLevel    slog.Level

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	Config   *langspec.Config
	Sections langspec.SectionService
}

// NewMain returns a new instance of Main with defaults taken from the
// environment.
func NewMain() *Main {
	return &Main{
		DBPath:      defaultDBPath(),
		CacheDir:    defaultCacheDir(),
		SourcesPath: os.Getenv("LANGSPEC_SOURCES"),
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
		LogLevel:    parseLogLevel(os.Getenv("LANGSPEC_LOG_LEVEL")),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("langspec"),
		kong.Description("Index and search programming language specifications."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'langspec --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: m.LogLevel}))

	if m.Config == nil {
		if m.Config, err = m.loadSources(); err != nil {
			fmt.Fprintln(stderr, "Hint: Set LANGSPEC_SOURCES to a valid sources file")
			return err
		}
	}
	deps.Config = m.Config

	if m.Sections == nil {
		m.DB = sqlite.NewDB(m.DBPath)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set LANGSPEC_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
		}
		defer m.Close()
		m.Sections = lsslog.NewLoggingSectionService(sqlite.NewSectionService(m.DB), logger)
	}
	deps.Sections = m.Sections

	if cmd == "ingest" {
		deps.Metrics = prometheus.NewMetrics()
		ingester, err := m.newIngester(logger, deps.Metrics)
		if err != nil {
			return err
		}
		deps.Ingest = lsslog.NewLoggingIngestService(ingester, logger)
	}

	return kongCtx.Run(deps)
}

func (m *Main) loadSources() (*langspec.Config, error) {
	if m.SourcesPath == "" {
		return yaml.DefaultSources()
	}
	return yaml.LoadSources(m.SourcesPath)
}

// newIngester wires the fetch, parse and store pipeline.
func (m *Main) newIngester(logger *slog.Logger, observer langspec.IngestObserver) (*ingest.Ingester, error) {
	client, err := github.NewClient(m.GitHubToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	fetcher := lshttp.NewFetcher(lshttp.WithHostLimiter(lshttp.NewHostLimiter(lshttp.DefaultHostRPS)))
	html := goquery.NewParser()
	executor := &ingest.Executor{
		Fetcher:      lsslog.NewLoggingFetcher(fetcher, logger),
		Cache:        fs.NewCache(m.CacheDir),
		Files:        lsslog.NewLoggingFileLister(github.NewLister(client), logger),
		HTML:         html,
		Manifest:     &goldmark.Manifest{},
		Retry:        backoff.NewPolicy(logger),
		PageDelay:    ingest.DefaultPageDelay,
		MaxPageDelay: ingest.DefaultMaxPageDelay,
	}
	return &ingest.Ingester{
		Executor: executor,
		HTML:     html,
		Sections: m.Sections,
		Observer: observer,
	}, nil
}

func defaultDBPath() string {
	if path := os.Getenv("LANGSPEC_DB"); path != "" {
		return path
	}
	return filepath.Join(dataDir(), "langspec.db")
}

func defaultCacheDir() string {
	if dir := os.Getenv("LANGSPEC_CACHE_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(dataDir(), "cache")
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".langspec"
	}
	dir := filepath.Join(home, ".langspec")
	_ = os.MkdirAll(dir, 0755)
	return dir
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
