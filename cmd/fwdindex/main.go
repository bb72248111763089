package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/viant/fwdindex/config"
	"github.com/viant/fwdindex/forward"
	"github.com/viant/fwdindex/indexer"
	"github.com/viant/fwdindex/service"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	maybeDebugSleep(os.Args[1])

	switch os.Args[1] {
	case "index":
		indexCmd(os.Args[2:])
	case "lookup":
		lookupCmd(os.Args[2:])
	case "dump":
		dumpCmd(os.Args[2:])
	case "stats":
		statsCmd(os.Args[2:])
	case "clear":
		clearCmd(os.Args[2:])
	case "metrics":
		metricsCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: fwdindex <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  index    Index a folder into the forward index")
	fmt.Fprintln(os.Stderr, "  lookup   Show the forward entry of a file")
	fmt.Fprintln(os.Stderr, "  dump     List every FileInfo record in append order")
	fmt.Fprintln(os.Stderr, "  stats    Print storage counters as JSON")
	fmt.Fprintln(os.Stderr, "  clear    Drop every record, key and fingerprint")
	fmt.Fprintln(os.Stderr, "  metrics  Serve Prometheus metrics, re-indexing periodically")
}

type commonFlags struct {
	configPath *string
	dir        *string
	kind       *string
	compress   *string
}

func addCommonFlags(flags *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: flags.String("config", "", "config yaml (optional)"),
		dir:        flags.String("dir", "", "storage directory (overrides config)"),
		kind:       flags.String("kind", "", "storage kind: paged|mmap|memory (overrides config)"),
		compress:   flags.String("compression", "", "entry compression: none|zstd (overrides config)"),
	}
}

func (c *commonFlags) load() *config.Config {
	cfg := config.DefaultConfig()
	if *c.configPath != "" {
		loaded, err := config.LoadConfig(*c.configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}
	if *c.dir != "" {
		cfg.Storage.Dir = *c.dir
		cfg.KeyMap.DSN = ""
	}
	if *c.kind != "" {
		cfg.Storage.Kind = *c.kind
	}
	if *c.compress != "" {
		cfg.Storage.Compression = *c.compress
	}
	return cfg
}

func open(ctx context.Context, cfg *config.Config) *service.Service {
	srv, err := service.New(ctx, cfg)
	if err != nil {
		log.Fatalf("service init: %v", err)
	}
	return srv
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func indexCmd(args []string) {
	flags := flag.NewFlagSet("index", flag.ExitOnError)
	common := addCommonFlags(flags)
	rootPath := flags.String("path", "", "filesystem path or afs URL to index (required)")
	include := flags.String("include", "", "comma-separated include patterns")
	exclude := flags.String("exclude", "", "comma-separated exclude patterns")
	maxSize := flags.Int("max-size", 0, "max file size in bytes")
	caseSensitive := flags.Bool("case-sensitive", false, "hash words with their original case")
	flags.Parse(args)
	if *rootPath == "" {
		flags.Usage()
		os.Exit(2)
	}

	cfg := common.load()
	if v := parseCSV(*include); len(v) > 0 {
		cfg.Index.Include = v
	}
	cfg.Index.Exclude = append(cfg.Index.Exclude, parseCSV(*exclude)...)
	if *maxSize > 0 {
		cfg.Index.MaxSizeBytes = *maxSize
	}
	if *caseSensitive {
		cfg.Index.CaseSensitive = true
	}

	ctx, cancel := signalContext()
	defer cancel()
	srv := open(ctx, cfg)
	defer func() { _ = srv.Close() }()

	started := time.Now()
	stats, err := srv.Index(ctx, *rootPath)
	if err != nil {
		log.Fatalf("index: %v", err)
	}
	log.Printf("index: files=%d indexed=%d unchanged=%d reused=%d stale=%d removed=%d skipped=%d bytes=%d elapsed=%s",
		stats.Files, stats.Indexed, stats.Unchanged, stats.Reused, stats.Stale, stats.Removed, stats.Skipped, stats.Bytes, time.Since(started).Round(time.Millisecond))
}

func lookupCmd(args []string) {
	flags := flag.NewFlagSet("lookup", flag.ExitOnError)
	common := addCommonFlags(flags)
	path := flags.String("path", "", "indexed file path (required)")
	words := flags.String("words", "", "comma-separated words to report occurrences of")
	flags.Parse(args)
	if *path == "" {
		flags.Usage()
		os.Exit(2)
	}
	cfg := common.load()

	ctx, cancel := signalContext()
	defer cancel()
	srv := open(ctx, cfg)
	defer func() { _ = srv.Close() }()

	info, entry, err := srv.Lookup(ctx, *path)
	if errors.Is(err, indexer.ErrNotIndexed) {
		log.Fatalf("lookup: %s is not indexed", *path)
	}
	if err != nil {
		log.Fatalf("lookup: %v", err)
	}
	fmt.Printf("path=%s size=%d words=%d entry=%d indexed=%s\n", info.Path, info.Size, info.Words, info.EntryID, info.IndexedAt.Format(time.RFC3339))
	for _, word := range parseCSV(*words) {
		mask := entry[forward.NewEntry(word, cfg.Index.CaseSensitive)]
		fmt.Printf("  %s: %s\n", word, mask)
	}
	if *words == "" {
		printEntry(entry)
	}
}

func printEntry(entry forward.Map) {
	keys := make([]forward.IDIndexEntry, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		fmt.Printf("  %d: %s\n", k, entry[k])
	}
}

func dumpCmd(args []string) {
	flags := flag.NewFlagSet("dump", flag.ExitOnError)
	common := addCommonFlags(flags)
	limit := flags.Int("limit", 0, "stop after N records (0 means all)")
	flags.Parse(args)
	cfg := common.load()

	ctx, cancel := signalContext()
	defer cancel()
	srv := open(ctx, cfg)
	defer func() { _ = srv.Close() }()

	count := 0
	outcome, err := srv.Files(ctx, func(id int64, info indexer.FileInfo) bool {
		fmt.Printf("%d\t%s\tsize=%d\twords=%d\tentry=%d\n", id, info.Path, info.Size, info.Words, info.EntryID)
		count++
		return *limit <= 0 || count < *limit
	})
	if err != nil {
		log.Fatalf("dump: %v", err)
	}
	log.Printf("dump: %d records, %s", count, outcome)
}

func statsCmd(args []string) {
	flags := flag.NewFlagSet("stats", flag.ExitOnError)
	common := addCommonFlags(flags)
	flags.Parse(args)
	cfg := common.load()

	ctx, cancel := signalContext()
	defer cancel()
	srv := open(ctx, cfg)
	defer func() { _ = srv.Close() }()

	data, err := json.MarshalIndent(srv.Stats(), "", "  ")
	if err != nil {
		log.Fatalf("stats: %v", err)
	}
	fmt.Println(string(data))
}

func clearCmd(args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	common := addCommonFlags(flags)
	flags.Parse(args)
	cfg := common.load()

	ctx, cancel := signalContext()
	defer cancel()
	srv := open(ctx, cfg)
	defer func() { _ = srv.Close() }()

	if err := srv.Rebuild(ctx); err != nil {
		log.Fatalf("clear: %v", err)
	}
	log.Printf("clear: %s", cfg.Storage.Dir)
}

func metricsCmd(args []string) {
	ctx, cancel := signalContext()
	defer cancel()
	if err := runMetrics(ctx, args, nil); err != nil {
		log.Fatalf("metrics: %v", err)
	}
}

// runMetrics serves /metrics until ctx is done. ready, when set, receives the bound address.
func runMetrics(ctx context.Context, args []string, ready func(addr string)) error {
	flags := flag.NewFlagSet("metrics", flag.ExitOnError)
	common := addCommonFlags(flags)
	addr := flags.String("addr", "", "listen address (overrides config)")
	rootPath := flags.String("path", "", "path to re-index periodically (optional)")
	interval := flags.Duration("interval", time.Minute, "re-index interval")
	flags.Parse(args)
	cfg := common.load()
	if *addr != "" {
		cfg.Metrics.Addr = *addr
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	srv, err := service.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("service init: %w", err)
	}
	defer func() { _ = srv.Close() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(srv.Collectors()...)

	listener, err := net.Listen("tcp", cfg.Metrics.Addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = server.Shutdown(shutdown)
	}()
	if *rootPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reindex(ctx, srv, *rootPath, *interval)
		}()
	}
	log.Printf("metrics: listening on %s", listener.Addr())
	if ready != nil {
		ready(listener.Addr().String())
	}
	err = server.Serve(listener)
	cancel()
	wg.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func reindex(ctx context.Context, srv *service.Service, location string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if stats, err := srv.Index(ctx, location); err != nil {
			log.Printf("metrics: index %s: %v", location, err)
		} else {
			log.Printf("metrics: index %s: indexed=%d unchanged=%d removed=%d", location, stats.Indexed, stats.Unchanged, stats.Removed)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func parseCSV(value string) []string {
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}

func maybeDebugSleep(cmd string) {
	seconds := debugSleepFromEnv()
	if seconds <= 0 {
		return
	}
	log.Printf("debug: cmd=%s pid=%d sleep=%ds", cmd, os.Getpid(), seconds)
	time.Sleep(time.Duration(seconds) * time.Second)
}

func debugSleepFromEnv() int {
	val := strings.TrimSpace(os.Getenv("FWDINDEX_DEBUG_SLEEP"))
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
