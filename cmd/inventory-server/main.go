package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	authfamily "github.com/smartinventory/smartinventory-backend/internal/auth/family"
	authhandler "github.com/smartinventory/smartinventory-backend/internal/auth/handler"
	authjwt "github.com/smartinventory/smartinventory-backend/internal/auth/jwt"
	authservice "github.com/smartinventory/smartinventory-backend/internal/auth/service"
	"github.com/smartinventory/smartinventory-backend/internal/chatbot"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/events"
	invhandler "github.com/smartinventory/smartinventory-backend/internal/inventory/handler"
	invservice "github.com/smartinventory/smartinventory-backend/internal/inventory/service"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/internal/live"
	"github.com/smartinventory/smartinventory-backend/internal/media"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/guesser"
	receipthandler "github.com/smartinventory/smartinventory-backend/internal/receipt/handler"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/importer"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/ocr"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/preprocess"
	receiptservice "github.com/smartinventory/smartinventory-backend/internal/receipt/service"
	"github.com/smartinventory/smartinventory-backend/pkg/config"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/i18n"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/messaging"
	"github.com/smartinventory/smartinventory-backend/pkg/objectstore"
)

const serviceName = "inventory-server"

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().
		Str("storage", cfg.Storage.Backend).
		Bool("s3", cfg.S3.Enabled).
		Str("ocr", cfg.OCR.Engine).
		Str("chatbot", cfg.Chatbot.Backend).
		Msg("starting inventory server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Object storage mirror
	var objects objectstore.Store
	if cfg.S3.Enabled {
		s3, err := objectstore.NewS3(ctx, &cfg.S3, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create S3 client")
		}
		objects = s3
	}

	// Persistence
	persister, closePersister, err := store.PersisterFromConfig(ctx, cfg, objects, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer closePersister()

	state, err := persister.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load inventory")
	}
	st := store.New(state)
	snap := st.Snapshot()
	log.Info().
		Int("items", len(snap.Items)).
		Int("locations", len(snap.Locations)).
		Int("categories", len(snap.Categories)).
		Msg("inventory loaded")

	flusher := store.NewFlusher(st, persister, cfg.Storage.FlushDebounce, log)
	flusher.Start(ctx)

	// Images
	mediaService, err := media.NewService(cfg.Storage.ImagesDir, cfg.Storage.ThumbnailsDir, objects, cfg.S3.Prefix, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize media storage")
	}

	// Event sinks: live websocket feed and optional RabbitMQ
	var sinks []events.Sink
	var hub *live.Hub
	if cfg.Live.Enabled {
		hub = live.NewHub(log)
		sinks = append(sinks, hub)
	}

	var rmq *messaging.RabbitMQ
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		rabbit, err := events.NewRabbitSink(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		sinks = append(sinks, rabbit)
	}
	publisher := events.NewInventoryEventPublisher(log, sinks...)

	// Family accounts
	directory := authfamily.NewDirectory(0)
	if cfg.Auth.SeedDemoFamily {
		if err := directory.SeedDemo(); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo family")
		}
	}
	authService := authservice.NewAuthService(directory, authjwt.NewManager(&cfg.JWT), cfg.Auth, log)
	authMiddleware := authhandler.NewMiddleware(authService, log)
	guard := invhandler.Guard(authMiddleware.RequirePermission)

	// Inventory
	itemService := invservice.NewItemService(st, mediaService, publisher, authService, log)
	locationService := invservice.NewLocationService(st, mediaService, publisher, log)
	categoryService := invservice.NewCategoryService(st, publisher, log)
	stockService := invservice.NewStockService(st, publisher, authService, log)
	systemService := invservice.NewSystemService(st, flusher, invservice.SystemConfig{
		Environment:    cfg.Server.Environment,
		StorageBackend: cfg.Storage.Backend,
		S3Enabled:      cfg.S3.Enabled,
		S3Bucket:       cfg.S3.Bucket,
	}, log)

	// Receipts
	rules, err := guesser.DefaultRules()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load guesser rules")
	}
	recognizer := ocr.NewRecognizer(
		preprocess.New(cfg.OCR.MaxDimension, ""),
		ocr.EngineFromConfig(cfg.OCR, log),
		ocr.OptionsFromConfig(cfg.OCR),
		log,
	)
	jobs := receiptservice.NewJobStore(cfg.OCR.ScanJobTTL)
	receiptService := receiptservice.New(
		recognizer,
		importer.New(st, publisher, authService, log),
		st, rules, jobs, log,
	)
	receiptHandler := receipthandler.NewReceiptHandler(receiptService, cfg.Server.MaxUploadBytes, log)

	// Chatbot
	chatService := chatbot.NewService(st, newChatBackend(ctx, cfg.Chatbot, log), nil, log)

	handlers := &invhandler.Handlers{
		Items:      invhandler.NewItemHandler(itemService, cfg.Server.MaxUploadBytes, log),
		Locations:  invhandler.NewLocationHandler(locationService, cfg.Server.MaxUploadBytes, log),
		Categories: invhandler.NewCategoryHandler(categoryService, log),
		Stock:      invhandler.NewStockHandler(stockService, log),
		Search:     invhandler.NewSearchHandler(invservice.NewSearchService(st)),
		System:     invhandler.NewSystemHandler(systemService, log),
		Bulk:       receiptHandler.Bulk,
	}

	// Create router
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID", authhandler.APIKeyHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware)
	r.Use(authMiddleware.Authenticate)

	handlers.Register(r, guard)
	receiptHandler.Register(r, guard)
	chatbot.NewHandler(chatService, log).Register(r, guard)
	authhandler.NewAuthHandler(authService, log).Register(r, authMiddleware)
	mediaService.Register(r)
	if hub != nil {
		r.Get("/ws", hub.ServeHTTP)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return jobs.Run(gctx)
	})

	if hub != nil {
		g.Go(func() error {
			hub.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
		}
		receiptService.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
	}

	// Save whatever the debounce window still holds
	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := flusher.Stop(saveCtx); err != nil {
		log.Error().Err(err).Msg("failed to save inventory on shutdown")
	}

	log.Info().Msg("server stopped")
}
