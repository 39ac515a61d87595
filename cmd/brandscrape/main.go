package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"brand-profiler/backend/internal/brand"
	"brand-profiler/backend/internal/config"
	"brand-profiler/backend/internal/pipeline"
	"brand-profiler/backend/internal/store"
	"brand-profiler/backend/internal/urlnorm"
)

func main() {
	os.Exit(run())
}

// run holds the program body so deferred cleanup finishes before the process
// exits. It returns the exit status.
func run() int {
	var (
		configPath = flag.String("config", os.Getenv("BRAND_CONFIG"), "Path to YAML config file")
		save       = flag.Bool("save", false, "Record each profile in the SQLite store")
		dbPath     = flag.String("db", "", "Path to SQLite database (defaults to store.path from config)")
		outputPath = flag.String("output", "", "Optional path to write the JSON array of results (stdout when empty)")
		timeout    = flag.Duration("timeout", 0, "Deadline per URL (defaults to the configured scrape deadline)")
		urls       multiFlag
	)
	flag.Var(&urls, "url", "Website to scrape (repeatable)")
	flag.Parse()
	urls = append(urls, flag.Args()...)

	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: brandscrape [-config file] [-save] [-output file] -url example.com [-url ...] [url ...]")
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Errorf("load config: %v", err)
		return 1
	}
	cfg.Logging.ConfigureLogger()

	scraper, _, err := pipeline.FromConfig(context.Background(), *cfg)
	if err != nil {
		logrus.Errorf("build pipeline: %v", err)
		return 1
	}

	var rec recorder
	if *save {
		path := *dbPath
		if path == "" {
			path = cfg.Store.Path
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			logrus.Errorf("create data directory: %v", err)
			return 1
		}
		db, err := store.Open(path, true)
		if err != nil {
			logrus.Errorf("open database: %v", err)
			return 1
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logrus.WithError(cerr).Warn("close database")
			}
		}()
		rec = db
	}

	perURL := *timeout
	if perURL <= 0 {
		perURL = cfg.ScrapeDeadline()
	}

	results := scrapeAll(context.Background(), scraper, rec, urls, perURL)

	out := io.Writer(os.Stdout)
	if *outputPath != "" {
		fh, err := os.Create(*outputPath)
		if err != nil {
			logrus.Errorf("create output: %v", err)
			return 1
		}
		defer fh.Close()
		out = fh
	}
	if err := writeResults(out, results); err != nil {
		logrus.Errorf("write results: %v", err)
		return 1
	}
	if *outputPath != "" {
		logrus.WithField("path", *outputPath).Info("results written to file")
	}
	return exitCode(results)
}

// exitCode is 1 only when every URL failed.
func exitCode(results []result) int {
	if failed := countFailures(results); failed > 0 && failed == len(results) {
		logrus.WithField("failed", failed).Error("every url failed")
		return 1
	}
	return 0
}

// result is one line of CLI output: either a profile or an error.
// Earlier counts profiles already stored for the same host.
type result struct {
	URL       string         `json:"url"`
	ProfileID uint           `json:"profile_id,omitempty"`
	Earlier   int64          `json:"earlier_scrapes,omitempty"`
	Profile   *brand.Profile `json:"profile,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type runner interface {
	Run(ctx context.Context, rawURL string, report pipeline.Reporter) (*brand.Profile, error)
}

type recorder interface {
	SaveProfile(p *brand.Profile, sourceURL string) (uint, error)
	CountByHost(host string) (int64, error)
}

// scrapeAll runs the URLs one after another. A nil recorder skips saving.
func scrapeAll(ctx context.Context, scraper runner, rec recorder, urls []string, perURL time.Duration) []result {
	results := make([]result, 0, len(urls))
	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		start := time.Now()
		runCtx, cancel := context.WithTimeout(ctx, perURL)
		profile, err := scraper.Run(runCtx, raw, nil)
		cancel()

		log := logrus.WithFields(logrus.Fields{"url": raw, "duration": time.Since(start).Round(time.Millisecond)})
		if err != nil {
			log.WithError(err).WithField("kind", pipeline.KindOf(err)).Warn("scrape failed")
			results = append(results, result{URL: raw, Error: err.Error()})
			continue
		}

		entry := result{URL: raw, Profile: profile}
		if rec != nil {
			entry.Earlier, entry.ProfileID = record(rec, profile, raw, log)
		}
		log.WithField("products", len(profile.Products)).Info("scrape complete")
		results = append(results, entry)
	}
	return results
}

// record looks up earlier scrapes of the host and then saves the profile.
// Store errors are logged and leave the corresponding value at zero.
func record(rec recorder, profile *brand.Profile, raw string, log *logrus.Entry) (earlier int64, id uint) {
	normalized, u, err := urlnorm.NormalizeAndParse(raw)
	if err == nil {
		host := urlnorm.Host(u)
		if earlier, err = rec.CountByHost(host); err != nil {
			log.WithError(err).Warn("count earlier scrapes")
			earlier = 0
		} else if earlier > 0 {
			log.WithFields(logrus.Fields{"host": host, "earlier": earlier}).Info("host scraped before")
		}
	}
	id, err = rec.SaveProfile(profile, normalized)
	if err != nil {
		log.WithError(err).Warn("record profile")
		return earlier, 0
	}
	return earlier, id
}

func writeResults(w io.Writer, results []result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func countFailures(results []result) int {
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	return failed
}

type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}
