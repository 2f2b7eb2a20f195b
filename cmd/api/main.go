package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "travel_backoffice/internal/adapters/http_server"
	"travel_backoffice/internal/adapters/observability"
	"travel_backoffice/internal/adapters/pdf"
	"travel_backoffice/internal/adapters/rates"
	redisad "travel_backoffice/internal/adapters/redis"
	"travel_backoffice/internal/app"
	"travel_backoffice/internal/domain"
	"travel_backoffice/internal/shared"
	mysqlrepo "travel_backoffice/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(context.Background()); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; reads will bypass the cache")
	}

	var rateSrc domain.RateSource
	if rc, err := rates.New(cfg.RatesBaseURL, cfg.RatesRPS); err != nil {
		log.Warn().Err(err).Msg("rate client disabled; using fallback rates")
	} else {
		rateSrc = rc
	}
	rateSvc := app.NewRateService(rateSrc, domain.SystemClock{}, cfg.RateCacheTTL, cfg.DisplayCurrency)

	renderer, err := pdf.NewRenderer(pdf.NewChromePrinter(cfg.ChromePath, cfg.PDFTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("pdf templates failed to parse")
	}

	repo := mysqlrepo.New(db)
	loc := cfg.Location()
	h := &server.Handlers{
		Quotes:    app.NewQuoteService(repo, cache, cfg.CacheTTL, loc),
		Bookings:  app.NewBookingService(repo, repo, domain.SystemClock{}),
		Documents: app.NewDocumentService(repo, repo, renderer, pdf.NewLogoInliner(cfg.LogoURL), domain.SystemClock{}, loc),
		Rates:     rateSvc,
		Inventory: server.Inventory{
			Flights: app.NewInventoryService[domain.Flight](domain.EntityFlight,
				mysqlrepo.NewFlightStore(db), cache, cfg.CacheTTL, rateSvc, app.ValidateFlight),
			AirportTransfers: app.NewInventoryService[domain.AirportTransfer](domain.EntityAirportTransfer,
				mysqlrepo.NewAirportTransferStore(db), cache, cfg.CacheTTL, rateSvc, app.ValidateAirportTransfer),
			CircuitTransfers: app.NewInventoryService[domain.CircuitTransfer](domain.EntityCircuitTransfer,
				mysqlrepo.NewCircuitTransferStore(db), cache, cfg.CacheTTL, rateSvc, app.ValidateCircuitTransfer),
			Venues: app.NewInventoryService[domain.Venue](domain.EntityVenue,
				mysqlrepo.NewVenueStore(db), cache, cfg.CacheTTL, nil, app.ValidateVenue),
			TicketCategories: app.NewInventoryService[domain.TicketCategory](domain.EntityTicketCategory,
				mysqlrepo.NewTicketCategoryStore(db), cache, cfg.CacheTTL, nil, app.ValidateTicketCategory),
		},
	}

	// http
	srv := server.New(cfg.HTTPTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("display_currency", cfg.DisplayCurrency).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
