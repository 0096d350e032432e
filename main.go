package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/STop211650/HyphynessTracker/config"
	"github.com/STop211650/HyphynessTracker/database"
	"github.com/STop211650/HyphynessTracker/logger"
	"github.com/STop211650/HyphynessTracker/scheduler"
	"github.com/STop211650/HyphynessTracker/services"
	"github.com/STop211650/HyphynessTracker/services/betService"
	"github.com/STop211650/HyphynessTracker/services/eventService"
	"github.com/STop211650/HyphynessTracker/services/extService"
	"github.com/STop211650/HyphynessTracker/services/ingestService"
	"github.com/STop211650/HyphynessTracker/services/interactionService"
	"github.com/STop211650/HyphynessTracker/services/matchService"
	"github.com/STop211650/HyphynessTracker/services/metricsService"
	"github.com/STop211650/HyphynessTracker/services/reconcileService"
	"github.com/STop211650/HyphynessTracker/services/sessionService"
	"github.com/STop211650/HyphynessTracker/services/settlementService"
	"github.com/STop211650/HyphynessTracker/web"
	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zl.Fatal("error migrating database", zap.Error(err))
	}
	if err := services.RunMigrations(db, zl); err != nil {
		zl.Fatal("error running data migrations", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := metricsService.New(reg)
	metricsSrv := metricsService.StartMetricsServer(cfg.MetricsPort, reg, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	var notifier settlementService.Notifier = eventService.NopPublisher{}
	if cfg.KafkaBrokers != "" {
		publisher := eventService.NewKafkaPublisher(eventService.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled), cfg.TopicBetSettled)
		defer publisher.Close()
		notifier = publisher
		zl.Info("publishing settlements to kafka", zap.String("topic", cfg.TopicBetSettled))
	}

	var sessions sessionService.Store = sessionService.NewMemoryStore(cfg.SessionTTL)
	if cfg.RedisAddr != "" {
		rdb, err := sessionService.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			zl.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		sessions = sessionService.NewRedisStore(rdb, cfg.SessionTTL)
	}

	var extractor *extService.HTTPExtractor
	if cfg.ExtractorURL != "" {
		extractor = extService.NewHTTPExtractor(cfg.ExtractorURL, cfg.ExtractorAPIKey, cfg.ExtractorTimeout, zl)
	} else {
		zl.Warn("EXTRACTOR_URL not set, screenshot uploads are disabled")
	}

	store := betService.NewStore(db, zl)
	matcher := matchService.NewMatcher(store, cfg.MatchWindow, zl, metrics)
	engine := settlementService.NewEngine(store, notifier, zl, metrics)
	normalizer := ingestService.NewNormalizer(zl, metrics)
	reconciler := reconcileService.NewReconciler(normalizer, matcher, engine, store, zl, metrics)

	deps := web.Deps{
		Normalizer: normalizer,
		Matcher:    matcher,
		Settler:    engine,
		Reconciler: reconciler,
		Bets:       store,
	}
	// A typed nil would defeat the nil checks behind these interfaces.
	var botExtractor interactionService.Extractor
	if extractor != nil {
		deps.Extractor = extractor
		botExtractor = extractor
	}

	api := web.NewServer(deps, cfg.CORSAllowedOrigin, zl)
	go func() {
		if err := api.Start(cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("http api stopped", zap.Error(err))
			stop()
		}
	}()

	cronService := scheduler.SetupCron(sessions, store, db, zl)

	var dg *discordgo.Session
	if cfg.DiscordToken != "" {
		dg, err = discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			zl.Fatal("error creating Discord session", zap.Error(err))
		}

		handler := interactionService.NewHandler(db, zl, botExtractor, normalizer, reconciler, store, sessions)
		dg.AddHandler(services.InteractionHandler(handler, db, zl))
		dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
			err := s.UpdateGameStatus(0, "Tracking Bets!")
			if err != nil {
				return
			}
		})
		dg.Identify.Intents = discordgo.IntentsGuilds

		if err := dg.Open(); err != nil {
			zl.Fatal("error opening Discord session", zap.Error(err))
		}
		if err := services.RegisterCommands(dg); err != nil {
			zl.Fatal("error registering commands", zap.Error(err))
		}
		zl.Info("discord bot is running")
	} else {
		zl.Info("DISCORD_BOT_TOKEN not set, running the http api only")
	}

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	<-cronService.Stop().Done()
	if dg != nil {
		if err := dg.Close(); err != nil {
			zl.Warn("error closing Discord session", zap.Error(err))
		}
	}
	if err := api.Shutdown(shutdownCtx); err != nil {
		zl.Warn("error shutting down http api", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("error shutting down metrics server", zap.Error(err))
	}
}
