package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"laune/reader/internal/bulkfetch"
	"laune/reader/internal/client"
	"laune/reader/internal/config"
	"laune/reader/internal/database"
	"laune/reader/internal/feedcsv"
	"laune/reader/internal/models"
	"laune/reader/internal/server"
	"laune/reader/internal/server/pagination"
)

const usage = `Usage: laune [command] [options]
Commands: server, feeds, bulk, digest, import, export

For command-specific options, use: laune [command] -h`

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// commonFlags registers the backend and logging flags shared by every command.
func commonFlags(fs *flag.FlagSet, cfg *config.Config, logLevel *string) {
	fs.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL,
		"Base URL of the feed backend API (env: LAUNE_BACKEND_URL)")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout,
		"Timeout of a single backend request (env: LAUNE_REQUEST_TIMEOUT)")
	fs.StringVar(logLevel, "log-level", config.GetEnvString(config.Env("LOG_LEVEL"), config.DefaultLogLevel),
		"Log level: debug, info, warn, error (env: LAUNE_LOG_LEVEL)")
}

func main() {
	cfg := config.DefaultConfig()
	var logLevelStr string

	serverCmd := flag.NewFlagSet("server", flag.ExitOnError)
	commonFlags(serverCmd, cfg, &logLevelStr)
	serverCmd.StringVar(&cfg.DBPath, "db", cfg.DBPath,
		"Path to the SQLite state database (env: LAUNE_DB_PATH)")
	serverCmd.StringVar(&cfg.ServerHost, "host", cfg.ServerHost,
		"Host to bind the server to (env: LAUNE_HOST)")
	serverCmd.IntVar(&cfg.ServerPort, "port", cfg.ServerPort,
		"Port to listen on (env: LAUNE_PORT)")
	serverCmd.DurationVar(&cfg.SummaryInterval, "summary-interval", cfg.SummaryInterval,
		"Minimum time between summary generations, 0 to disable (env: LAUNE_SUMMARY_INTERVAL)")
	serverCmd.IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize,
		"Maximum number of cached backend queries (env: LAUNE_CACHE_SIZE)")
	serverCmd.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL,
		"Lifetime of a cached backend query (env: LAUNE_CACHE_TTL)")
	serverCmd.IntVar(&cfg.DefaultPageSize, "page-size", cfg.DefaultPageSize,
		"Preselected bulk fetch page size (env: LAUNE_PAGE_SIZE)")
	serverCmd.IntVar(&cfg.SessionCapacity, "sessions", cfg.SessionCapacity,
		"Maximum number of browser sessions kept in memory (env: LAUNE_SESSION_CAPACITY)")
	serverCmd.BoolVar(&cfg.SecureCookies, "secure-cookies", cfg.SecureCookies,
		"Mark the session cookie Secure (env: LAUNE_SECURE_COOKIES)")

	feedsCmd := flag.NewFlagSet("feeds", flag.ExitOnError)
	commonFlags(feedsCmd, cfg, &logLevelStr)

	defaultFeeds := strings.Join(config.GetEnvStrings(config.Env("FEEDS"), nil), ",")

	var bulkOpts bulkOptions
	bulkCmd := flag.NewFlagSet("bulk", flag.ExitOnError)
	commonFlags(bulkCmd, cfg, &logLevelStr)
	bulkCmd.StringVar(&bulkOpts.feeds, "feeds", defaultFeeds, "Comma-separated feed ids (env: LAUNE_FEEDS)")
	bulkCmd.StringVar(&bulkOpts.start, "start", "", "Earliest publication time, RFC 3339 or 2006-01-02T15:04 local time")
	bulkCmd.StringVar(&bulkOpts.end, "end", "", "Latest publication time, RFC 3339 or 2006-01-02T15:04 local time")
	bulkCmd.IntVar(&bulkOpts.limit, "limit", cfg.DefaultPageSize, "Articles per page: 25, 50, 100 or 200 (env: LAUNE_PAGE_SIZE)")
	bulkCmd.IntVar(&bulkOpts.pages, "pages", 1, "Number of pages to load, 0 for all")

	var digestFeeds string
	var digestHours int
	digestCmd := flag.NewFlagSet("digest", flag.ExitOnError)
	commonFlags(digestCmd, cfg, &logLevelStr)
	digestCmd.StringVar(&digestFeeds, "feeds", defaultFeeds, "Comma-separated feed ids (env: LAUNE_FEEDS)")
	digestCmd.IntVar(&digestHours, "hours", config.DefaultDigestHours,
		fmt.Sprintf("Hours to look back, 1 to %d", models.MaxDigestHours))

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	commonFlags(importCmd, cfg, &logLevelStr)
	importCmd.StringVar(&cfg.FeedsCSVPath, "csv", cfg.FeedsCSVPath,
		"Path or http(s) URL of the feeds CSV file (env: LAUNE_CSV_PATH)")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	commonFlags(exportCmd, cfg, &logLevelStr)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	commands := map[string]*flag.FlagSet{
		"server": serverCmd,
		"feeds":  feedsCmd,
		"bulk":   bulkCmd,
		"digest": digestCmd,
		"import": importCmd,
		"export": exportCmd,
	}

	name := os.Args[1]
	switch name {
	case "-h", "--help", "help":
		fmt.Println(usage)
		os.Exit(0)
	}
	fs, ok := commands[name]
	if !ok {
		log.Error().Str("command", name).Msg("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
	fs.Parse(os.Args[2:])

	// Handle log level parsing separately since it needs conversion
	if level, err := zerolog.ParseLevel(logLevelStr); err == nil {
		cfg.LogLevel = level
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	if name == "server" {
		if err := runServer(cfg); err != nil {
			log.Error().Err(err).Msg("Server failed")
			os.Exit(1)
		}
		return
	}

	api, err := client.New(cfg.BackendURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithSummaryInterval(0),
		client.WithLogger(log.Logger),
	)
	if err != nil {
		log.Error().Err(err).Msg("Invalid backend configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch name {
	case "feeds":
		err = runFeeds(ctx, api, os.Stdout)
	case "bulk":
		err = runBulk(ctx, api, bulkOpts, os.Stdout)
	case "digest":
		err = runDigest(ctx, api, splitIDs(digestFeeds), digestHours, os.Stdout)
	case "import":
		err = runImport(ctx, api, cfg.FeedsCSVPath, cfg.RequestTimeout)
	case "export":
		err = runExport(ctx, api, os.Stdout)
	}
	if err != nil {
		log.Error().Err(err).Str("command", name).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}

// runServer opens the state database and serves the web UI.
func runServer(cfg *config.Config) error {
	log.Debug().Msg("Starting server with debug logging enabled")

	dbCfg := database.NewConfig(cfg.DBPath)
	db, err := database.NewDB(dbCfg)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("Failed to initialize database")
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	return server.RunServer(cfg, db, log.Logger)
}

// feedLister is the part of the client the read-only commands need.
type feedLister interface {
	ListFeeds(ctx context.Context) ([]models.Feed, error)
}

// runFeeds prints the registered feeds as a table.
func runFeeds(ctx context.Context, api feedLister, w io.Writer) error {
	feeds, err := api.ListFeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}
	if len(feeds) == 0 {
		fmt.Fprintln(w, "No feeds yet")
		return nil
	}
	return renderFeeds(w, feeds)
}

type bulkOptions struct {
	feeds string
	start string
	end   string
	limit int
	pages int
}

// runBulk drives a bulk fetch coordinator through the requested number of
// pages and prints the accumulated result.
func runBulk(ctx context.Context, api bulkfetch.Fetcher, opts bulkOptions, w io.Writer) error {
	q, err := opts.query(time.Local)
	if err != nil {
		return err
	}
	state, err := fetchPages(ctx, bulkfetch.New(api, log.Logger), q, opts.pages)
	if err != nil {
		return err
	}
	return renderBulk(w, state)
}

func (o bulkOptions) query(loc *time.Location) (bulkfetch.Query, error) {
	q := bulkfetch.Query{FeedIDs: splitIDs(o.feeds)}

	pageSize, err := pagination.ParsePageSize(fmt.Sprint(o.limit), pagination.DefaultPageSize)
	if err != nil {
		return q, err
	}
	q.PageSize = pageSize

	if q.StartDate, err = pagination.ParseDateBound(o.start, loc); err != nil {
		return q, fmt.Errorf("start: %w", err)
	}
	if q.EndDate, err = pagination.ParseDateBound(o.end, loc); err != nil {
		return q, fmt.Errorf("end: %w", err)
	}
	if q.StartDate != nil && q.EndDate != nil && *q.StartDate > *q.EndDate {
		return q, pagination.ErrDateOrder
	}
	return q, nil
}

// fetchPages submits q and loads more until pages pages are loaded or the
// result is exhausted. pages <= 0 loads everything.
func fetchPages(ctx context.Context, c *bulkfetch.Coordinator, q bulkfetch.Query, pages int) (bulkfetch.State, error) {
	if err := c.Submit(ctx, q); err != nil {
		return bulkfetch.State{}, err
	}
	for loaded := 1; pages <= 0 || loaded < pages; loaded++ {
		if !c.Snapshot().HasMore() {
			break
		}
		if err := c.LoadMore(ctx); err != nil {
			return c.Snapshot(), err
		}
	}
	return c.Snapshot(), nil
}

// digester is the part of the client the digest command needs.
type digester interface {
	AggregateSummary(ctx context.Context, req models.DigestRequest) (models.Digest, error)
}

func runDigest(ctx context.Context, api digester, feedIDs []string, hours int, w io.Writer) error {
	digest, err := api.AggregateSummary(ctx, models.DigestRequest{FeedIDs: feedIDs, HoursBack: hours})
	if err != nil {
		return fmt.Errorf("failed to generate digest: %w", err)
	}
	return renderDigest(w, digest)
}

// runImport creates the feeds listed in a CSV file.
func runImport(ctx context.Context, api feedcsv.FeedCreator, source string, timeout time.Duration) error {
	result, err := feedcsv.NewImporter(api, feedcsv.WithTimeout(timeout)).ImportFeeds(ctx, source)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		log.Warn().Str("source", source).Msg(msg)
	}
	return nil
}

// runExport writes the registered feeds as CSV.
func runExport(ctx context.Context, api feedLister, w io.Writer) error {
	feeds, err := api.ListFeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}
	return feedcsv.Export(w, feeds)
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
