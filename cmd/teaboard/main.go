package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"teaboard/internal/config"
	"teaboard/internal/connections/database"
	"teaboard/internal/connections/rabbitmq"
	"teaboard/internal/domain"
	"teaboard/internal/httpx"
	"teaboard/internal/logger"
	"teaboard/internal/persist"
	"teaboard/internal/reminder"
	"teaboard/internal/remote"
	"teaboard/internal/server"
	"teaboard/internal/store"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	lg, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// local mirror: the board must come up even with no remote at all
	local, err := persist.OpenSQLite(cfg.Storage.Path, time.Duration(cfg.Storage.PollMS)*time.Millisecond)
	if err != nil {
		lg.Fatalw("local_store_open_failed", "path", cfg.Storage.Path, "error", err)
	}
	defer local.Close()

	mirror := persist.NewMirror(local, cfg.Storage.Key, lg)
	initial := domain.DefaultState()
	if p, ok := mirror.Load(); ok {
		initial = domain.FromPersisted(p)
	} else if cfg.Shop.Name != "" || cfg.Shop.TotalTables > 0 {
		initial = domain.FromPersisted(domain.NormalizePersisted(domain.PersistedState{
			Shop: domain.Shop{Name: cfg.Shop.Name, TotalTables: cfg.Shop.TotalTables},
		}))
	}

	st := store.New(initial, store.WithLogger(lg))
	detachMirror := mirror.Attach(st)
	defer detachMirror()

	// remote sync is best-effort: any failure here degrades to
	// local-only operation
	var adapter *remote.Adapter
	if cfg.Sync.Enabled {
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			lg.Warnw("remote_db_unavailable", "error", err)
		} else {
			defer db.Close()
			mq, err := rabbitmq.Dial(cfg.Rabbit)
			if err != nil {
				lg.Warnw("remote_mq_unavailable", "error", err)
			} else {
				defer mq.Close()
				docs := remote.NewPGStore(db, mq, lg)
				if err := docs.EnsureSchema(ctx); err != nil {
					lg.Warnw("remote_schema_failed", "error", err)
				} else {
					adapter = remote.NewAdapter(docs, cfg.Shop.ID,
						remote.WithDebounce(time.Duration(cfg.Sync.DebounceMS)*time.Millisecond),
						remote.WithSyncLogger(lg),
					)
					adapter.Mount(ctx, st)
					lg.Infow("remote_sync_mounted", "shop_id", cfg.Shop.ID, "client_id", adapter.ClientID())
				}
			}
		}
	}
	if adapter != nil {
		defer adapter.Close()
	}

	if cfg.Reminder.Enabled {
		sweeper := reminder.New(st, time.Duration(cfg.Reminder.StaleAfterMin)*time.Minute, lg)
		if err := sweeper.Start(); err != nil {
			lg.Warnw("reminder_start_failed", "error", err)
		} else {
			defer sweeper.Stop()
		}
	}

	srv := server.New(st, lg, cfg.Metrics.Enabled)
	defer srv.Close()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	lg.Infow("service_started", "addr", addr, "shop", st.State().Shop.Name, "tables", st.State().Shop.TotalTables)
	if err := httpx.New(addr, srv.Router()).Run(ctx); err != nil {
		lg.Errorw("server_failed", "error", err)
		os.Exit(1)
	}
	lg.Infow("service_stopped")
}
