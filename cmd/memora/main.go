package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-co-op/gocron"
	flag "github.com/spf13/pflag"

	"github.com/colmryan/memora/internal/config"
	"github.com/colmryan/memora/internal/srs"
	"github.com/colmryan/memora/internal/store"
	"github.com/colmryan/memora/internal/sync"
	"github.com/colmryan/memora/internal/web"
)

func main() {
	flags := flag.NewFlagSet("memora", flag.ExitOnError)
	configPath := flags.String("config", "memora.yaml", "Path to the yaml config file")
	flags.String("addr", ":8447", "Listen address for the API server")
	flags.String("db", "memora.db", "Path to the SQLite database file")
	flags.String("repos_dir", "repos", "Directory for git deck checkouts")
	addSource := flags.String("add-source", "", "Register a deck source (directory or git URL) and exit")
	syncOnce := flags.Bool("sync", false, "Reconcile all sources once and exit")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	sched, err := srs.NewScheduler(cfg.SchedulerParams())
	if err != nil {
		log.Fatalf("Invalid scheduler parameters: %v", err)
	}
	model, err := cfg.Model()
	if err != nil {
		log.Fatalf("Invalid retention model: %v", err)
	}

	syncer := sync.New(db, sched, cfg.ReposDir)

	if *addSource != "" {
		registerSource(db, *addSource)
		return
	}

	if *syncOnce {
		if err := syncer.Run(); err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
		return
	}

	if cfg.SyncInterval > 0 {
		jobs := gocron.NewScheduler(time.UTC)
		if _, err := jobs.Every(cfg.SyncInterval).Do(func() {
			if err := syncer.Run(); err != nil {
				slog.Error("background sync failed", "error", err)
			}
		}); err != nil {
			log.Fatalf("Failed to schedule background sync: %v", err)
		}
		jobs.StartAsync()
		defer jobs.Stop()
		slog.Info("background sync scheduled", "interval", cfg.SyncInterval)
	}

	server := web.NewServer(db, sched, syncer, model)
	slog.Info("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, server); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func registerSource(db *store.DB, path string) {
	existing, err := db.FindSourceByPath(path)
	if err != nil {
		log.Fatalf("Failed to check source: %v", err)
	}
	if existing != nil {
		slog.Info("source already registered", "id", existing.ID, "path", path)
		return
	}

	sourceType := "local"
	if sync.IsGitPath(path) {
		sourceType = "git"
	}
	id, err := db.InsertSource(path, sourceType)
	if err != nil {
		log.Fatalf("Failed to add source: %v", err)
	}
	slog.Info("source registered", "id", id, "type", sourceType, "path", path)
}
