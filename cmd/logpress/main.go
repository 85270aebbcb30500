// Package main implements the logpress binary: compress log files into
// LSC containers, decompress them back, and query containers without
// decompressing.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/logpress/logpress/internal/compress"
	"github.com/logpress/logpress/internal/config"
	"github.com/logpress/logpress/internal/container"
	"github.com/logpress/logpress/internal/observability"
	"github.com/logpress/logpress/internal/query"
	"github.com/logpress/logpress/internal/storage"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dataDir     string
		mode        string
		input       string
		name        string
		slot        string
		value       string
		op          string
		since       string
		until       string
		output      string
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for container storage")
	flag.StringVar(&mode, "mode", "", "Operation: compress, decompress, query, stats")
	flag.StringVar(&input, "input", "", "Log file to compress (- for stdin)")
	flag.StringVar(&name, "container", "", "Container name in storage")
	flag.StringVar(&slot, "slot", "", "Slot name to filter on (query mode)")
	flag.StringVar(&value, "value", "", "Value to match (query mode)")
	flag.StringVar(&op, "op", "=", "Filter operator: =, contains, prefix")
	flag.StringVar(&since, "since", "", "Earliest timestamp to match, inclusive (query mode)")
	flag.StringVar(&until, "until", "", "Latest timestamp to match, inclusive (query mode)")
	flag.StringVar(&output, "output", "", "File to write decompressed lines to (default stdout)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Logpress - Structural Log Compression And Query\n\n")
		fmt.Fprintf(os.Stderr, "Usage: logpress --mode <mode> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  logpress --mode compress --input app.log --container app.lsc\n")
		fmt.Fprintf(os.Stderr, "  logpress --mode decompress --container app.lsc --output app.log\n")
		fmt.Fprintf(os.Stderr, "  logpress --mode query --container app.lsc --slot severity --value ERROR\n")
		fmt.Fprintf(os.Stderr, "  logpress --mode query --container app.lsc --slot severity --value ERROR \\\n")
		fmt.Fprintf(os.Stderr, "           --since \"2023-11-14 09:00:00\" --until \"2023-11-14 10:00:00\"\n")
		fmt.Fprintf(os.Stderr, "  logpress --mode stats --container app.lsc\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  LOGPRESS_MIN_SUPPORT           Minimum group size for a template\n")
		fmt.Fprintf(os.Stderr, "  LOGPRESS_SIMILARITY_THRESHOLD  Literal agreement fraction (0..1]\n")
		fmt.Fprintf(os.Stderr, "  LOGPRESS_MAX_RESULT_LOGS       Cap on reconstructed query results\n")
		fmt.Fprintf(os.Stderr, "  LOGPRESS_STORAGE_TYPE          Storage backend (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  LOGPRESS_STORAGE_PATH          Local storage directory\n")
		fmt.Fprintf(os.Stderr, "  LOGPRESS_S3_BUCKET             S3 bucket for containers\n")
		fmt.Fprintf(os.Stderr, "  LOGPRESS_S3_REGION             S3 region\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("logpress version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(configFile, dataDir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	switch mode {
	case "compress":
		err = runCompress(ctx, cfg, store, input, name)
	case "decompress":
		err = runDecompress(ctx, store, name, output)
	case "query":
		err = runQuery(ctx, cfg, store, name, slot, op, value, since, until)
	case "stats":
		err = runStats(ctx, store, name)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

func loadConfig(configFile, dataDir string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.Storage.Type == "s3" {
		return storage.NewS3Store(ctx, cfg.Storage.S3.Bucket, storage.S3Config{
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.Endpoint != "",
		})
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return storage.NewLocalStore(cfg.Storage.Path)
}

func runCompress(ctx context.Context, cfg *config.Config, store storage.ObjectStore, input, name string) error {
	if input == "" || name == "" {
		return fmt.Errorf("compress mode requires --input and --container")
	}
	lines, err := readLines(input)
	if err != nil {
		return err
	}
	opts := compress.Options{
		MinSupport:          cfg.Extract.MinSupport,
		SimilarityThreshold: cfg.Extract.SimilarityThreshold,
		MaxExampleLines:     cfg.Extract.MaxExampleLines,
		BloomBitsPerValue:   cfg.Query.BloomBitsPerValue,
	}
	_, data, stats, err := compress.Compress(lines, opts)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, name, data); err != nil {
		return err
	}
	fmt.Printf("compressed %d lines into %d templates\n", stats.LogCount, stats.TemplateCount)
	fmt.Printf("%d -> %d bytes (ratio %.2fx) in %s\n",
		stats.OriginalSize, stats.CompressedSize, stats.CompressionRatio, stats.Elapsed)
	return nil
}

func runDecompress(ctx context.Context, store storage.ObjectStore, name, output string) error {
	c, err := loadContainer(ctx, store, name)
	if err != nil {
		return err
	}
	lines, err := compress.Decompress(c)
	if err != nil {
		return err
	}
	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return w.Flush()
}

func runQuery(ctx context.Context, cfg *config.Config, store storage.ObjectStore, name, slot, op, value, since, until string) error {
	if slot == "" && since == "" && until == "" {
		return fmt.Errorf("query mode requires --slot or --since/--until")
	}
	c, err := loadContainer(ctx, store, name)
	if err != nil {
		return err
	}
	engine := query.New(c)
	engine.SetMaxResultLogs(cfg.Query.MaxResultLogs)

	var preds []query.Predicate
	if slot != "" {
		switch op {
		case "=", "":
			preds = append(preds, query.Equals(slot, value))
		case "contains":
			preds = append(preds, query.Contains(slot, value))
		case "prefix":
			preds = append(preds, query.Prefix(slot, value))
		default:
			return fmt.Errorf("unknown operator %q", op)
		}
	}
	if since != "" || until != "" {
		p, err := timeRangePredicate(since, until)
		if err != nil {
			return err
		}
		preds = append(preds, p)
	}
	result, err := engine.FilterAll(preds)
	if err != nil {
		return err
	}
	for _, line := range result.Logs {
		fmt.Println(line)
	}
	fmt.Fprintf(os.Stderr, "matched %d of %d scanned rows in %s\n",
		result.MatchedCount, result.ScannedCount, result.ExecutionTime)
	fmt.Fprint(os.Stderr, formatSlotUsage(engine.SlotStats().TopSlots(5)))
	return nil
}

// timeRangePredicate builds the timestamp-slot range predicate from the
// --since/--until flags. Open ends default to the epoch and far future.
func timeRangePredicate(since, until string) (query.Predicate, error) {
	start := time.Unix(0, 0).UTC()
	end := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
	var err error
	if since != "" {
		if start, err = parseTimeFlag(since); err != nil {
			return query.Predicate{}, fmt.Errorf("invalid --since: %w", err)
		}
	}
	if until != "" {
		if end, err = parseTimeFlag(until); err != nil {
			return query.Predicate{}, fmt.Errorf("invalid --until: %w", err)
		}
	}
	return query.TimeRange("timestamp", start, end), nil
}

func parseTimeFlag(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", v)
}

// formatSlotUsage renders the per-slot query counters that accompany
// query output.
func formatSlotUsage(slots []observability.SlotUsage) string {
	var b strings.Builder
	for _, u := range slots {
		fmt.Fprintf(&b, "slot %s: %d queries, %d matches\n", u.Slot, u.Queries, u.Matches)
	}
	return b.String()
}

func runStats(ctx context.Context, store storage.ObjectStore, name string) error {
	c, err := loadContainer(ctx, store, name)
	if err != nil {
		return err
	}
	engine := query.New(c)
	stats, err := engine.Statistics()
	if err != nil {
		return err
	}

	fmt.Printf("container %s: %d lines, %d templates, %d unmatched\n",
		c.ID, stats.LineCount, stats.TemplateCount, stats.UnmatchedCount)
	if stats.TimeRange != nil {
		fmt.Printf("time range: %s .. %s\n",
			stats.TimeRange.Start.Format("2006-01-02 15:04:05"),
			stats.TimeRange.End.Format("2006-01-02 15:04:05"))
	}
	printCounts("severities", stats.Severities)
	printCounts("statuses", stats.Statuses)
	for _, t := range stats.Templates {
		fmt.Printf("  %s  %6d  %s\n", t.ID, t.MatchCount, t.Pattern)
	}
	// Full report as JSON on demand via redirection-friendly marker.
	if os.Getenv("LOGPRESS_STATS_JSON") != "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	return nil
}

func printCounts(label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	fmt.Printf("%s: %s\n", label, strings.Join(parts, " "))
}

func loadContainer(ctx context.Context, store storage.ObjectStore, name string) (*container.Container, error) {
	if name == "" {
		return nil, fmt.Errorf("missing --container")
	}
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return container.Deserialize(data)
}

func readLines(input string) ([]string, error) {
	var r *os.File
	if input == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
