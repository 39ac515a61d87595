package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"brand-profiler/backend/internal/api"
	"brand-profiler/backend/internal/config"
	"brand-profiler/backend/internal/pipeline"
	"brand-profiler/backend/internal/store"
)

func main() {
	configPath := flag.String("config", os.Getenv("BRAND_CONFIG"), "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	cfg.Logging.ConfigureLogger()

	scraper, aiEnabled, err := pipeline.FromConfig(context.Background(), *cfg)
	if err != nil {
		logrus.Fatalf("build pipeline: %v", err)
	}

	serverCfg := api.Config{
		Scraper:        scraper,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		ScrapeTimeout:  cfg.ScrapeDeadline(),
		Flags: api.RuntimeFlags{
			AIEnabled:       aiEnabled,
			AIProvider:      cfg.AI.Provider,
			RespectRobots:   cfg.Fetch.RespectRobots,
			MatchImageNames: cfg.Enrich.MatchImageNames,
		},
	}

	if cfg.Store.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			logrus.Fatalf("create data directory: %v", err)
		}
		db, err := store.Open(cfg.Store.Path, cfg.Store.Silent)
		if err != nil {
			logrus.Fatalf("open profile store: %v", err)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logrus.WithError(cerr).Warn("close database")
			}
		}()
		serverCfg.Store = db
	}

	server, err := api.NewServer(serverCfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	logrus.Infof("starting brand-profiler backend on :%s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
