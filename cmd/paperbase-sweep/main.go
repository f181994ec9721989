package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"

	"github.com/paperbase/paperbase/internal/blob"
	"github.com/paperbase/paperbase/internal/config"
	"github.com/paperbase/paperbase/internal/storage"
	"github.com/paperbase/paperbase/internal/sweep"
	"github.com/paperbase/paperbase/pkg/database"
	"github.com/paperbase/paperbase/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "config.hcl", "Path to configuration file")
	metricsAddr := flag.String("metrics-addr", "", "Expose prometheus metrics on this address during the run")
	flag.Parse()

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "paperbase-sweep",
		Level: hclog.Info,
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.LogLevel != "" {
		log.SetLevel(hclog.LevelFromString(cfg.LogLevel))
	}

	db, err := database.Connect(cfg.DatabaseConfig(), log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	repos, err := cfg.RepositoryMap()
	if err != nil {
		log.Error("failed to build repository map", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Error("metrics listener failed", "error", err)
			}
		}()
	}

	opts := sweep.Options{}
	if cfg.Sweep != nil {
		opts.BatchSize = cfg.Sweep.BatchSize
		opts.MaxRetries = uint64(cfg.Sweep.MaxRetries)
		opts.RetryInterval = cfg.SweepRetryInterval()
	}

	sweeper := sweep.New(
		storage.NewMetadata(db, log, m),
		storage.NewLedger(db, log),
		blob.NewStore(afero.NewOsFs(), repos, log, m),
		opts, log, m,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, stopping sweep", "signal", sig)
		cancel()
	}()

	report, err := sweeper.Run(ctx)
	if err != nil {
		log.Error("sweep did not complete", "error", err)
		os.Exit(1)
	}

	for _, f := range report.Findings {
		log.Warn("inconsistency",
			"doi", f.DOI, "version", f.Version, "path", f.Path, "reason", f.Reason)
	}
	log.Info("sweep complete",
		"documents", report.Documents,
		"versions", report.Versions,
		"findings", len(report.Findings))

	if len(report.Findings) > 0 {
		os.Exit(2)
	}
}
