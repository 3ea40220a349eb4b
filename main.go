package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/Billy-Davies-2/fighter-matchup/internal/clickhouse"
	"github.com/Billy-Davies-2/fighter-matchup/internal/config"
	"github.com/Billy-Davies-2/fighter-matchup/internal/dal"
	"github.com/Billy-Davies-2/fighter-matchup/internal/engine"
	grpcserver "github.com/Billy-Davies-2/fighter-matchup/internal/grpc"
	"github.com/Billy-Davies-2/fighter-matchup/internal/handlers"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/pubsub"
	"github.com/Billy-Davies-2/fighter-matchup/internal/statsapi"
)

// broker is the event transport shared between instances
type broker interface {
	pubsub.Upstream
	Ping(ctx context.Context) error
	Close()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.InitWithWriter(os.Stdout, cfg.LogLevel)
	logger.Info("Starting fighter matchup service", "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tunables, err := config.LoadTunables(cfg.EngineConfig)
	if err != nil {
		logger.Error("Failed to load engine config", "error", err, "path", cfg.EngineConfig)
		log.Fatalf("Failed to load engine config: %v", err)
	}

	checks := map[string]handlers.Check{}

	// Catalog and win rates are read once; requests never touch the stores
	src, err := dal.OpenSource(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open catalog source", "error", err, "driver", cfg.CatalogDriver)
		log.Fatalf("Failed to open catalog source: %v", err)
	}
	defer src.Close()

	winRates, err := openWinRates(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open win rate source", "error", err, "source", cfg.WinRateSource)
		log.Fatalf("Failed to open win rate source: %v", err)
	}
	if winRates != nil {
		defer winRates.Close()
		if ch, ok := winRates.(*clickhouse.Client); ok {
			checks["clickhouse"] = ch.Ping
		}
	}

	var ready atomic.Bool
	cat, err := dal.LoadCatalog(ctx, src, winRates, filepath.Join(cfg.StaticDir, "images"))
	if err != nil {
		logger.Error("Failed to load catalog", "error", err)
		log.Fatalf("Failed to load catalog: %v", err)
	}
	eng := engine.New(cat, tunables)
	ready.Store(true)

	// Embedded NATS in development, JetStream server otherwise
	var upstream broker
	if cfg.Development() {
		opts := pubsub.DefaultEmbeddedNATSOptions()
		opts.Subject = cfg.NATSSubject
		embedded, err := pubsub.NewEmbeddedNATSPubSub(opts)
		if err != nil {
			logger.Error("Failed to initialize embedded NATS", "error", err)
			log.Fatalf("Failed to initialize embedded NATS: %v", err)
		}
		logger.Info("Embedded NATS server ready", "url", embedded.ServerURL())
		upstream = embedded
	} else {
		remote, err := pubsub.NewNATSPubSub(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			logger.Error("Failed to initialize NATS", "error", err, "url", cfg.NATSURL)
			log.Fatalf("Failed to initialize NATS: %v", err)
		}
		upstream = remote
	}
	defer upstream.Close()
	checks["nats"] = upstream.Ping
	ps := pubsub.NewWithUpstream(upstream)

	tmpl, err := handlers.LoadTemplates(cfg.TemplatesDir)
	if err != nil {
		logger.Error("Failed to parse templates", "error", err)
		log.Fatalf("Failed to parse templates: %v", err)
	}
	logger.Info("Templates loaded successfully")

	grpcSrv := grpc.NewServer()
	grpcserver.RegisterMatchupServiceServer(grpcSrv, grpcserver.NewServer(eng, ps))
	go func() {
		addr := "0.0.0.0:" + cfg.GRPCPort
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("Failed to listen for gRPC", "error", err, "port", cfg.GRPCPort)
			log.Fatalf("Failed to listen for gRPC: %v", err)
		}
		logger.Info("gRPC server starting", "address", addr)
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	router := handlers.NewRouter(handlers.RouterConfig{
		API:            handlers.NewAPIHandlers(eng, ps),
		Pages:          handlers.NewPageHandlers(eng, ps, tmpl),
		Health:         handlers.NewHealthHandlers(ready.Load, checks),
		StaticDir:      cfg.StaticDir,
		AllowedOrigins: cfg.CORSOrigins,
		RateLimit:      cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	grpcSrv.GracefulStop()
}

// openWinRates returns the dedicated win matrix source, or nil when the
// catalog's own matrix is used
func openWinRates(ctx context.Context, cfg *config.Config) (dal.MatrixSource, error) {
	switch cfg.WinRateSource {
	case config.WinRatesClickHouse:
		client, err := clickhouse.NewClient(cfg.ClickHouse)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to ClickHouse", "address", cfg.ClickHouse.Addr, "database", cfg.ClickHouse.Database)
		return client, nil
	case config.WinRatesStatsAPI:
		logger.Info("Using stats API win rates", "url", cfg.StatsAPI.URL)
		return statsapi.NewClient(ctx, cfg.StatsAPI), nil
	}
	return nil, nil
}
