package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"travel_backoffice/internal/adapters/observability"
	"travel_backoffice/internal/adapters/pdf"
	"travel_backoffice/internal/app"
	"travel_backoffice/internal/domain"
	"travel_backoffice/internal/shared"
	mysqlrepo "travel_backoffice/internal/storage/mysql"
)

func main() {
	status := flag.String("status", "", "export every quote in this status when no ids are given (empty: all quotes)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-status sent] [quote-id ...]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	qs := domain.QuoteStatus(*status)
	if qs != "" && !qs.Valid() {
		log.Fatal().Str("status", *status).Msg("unknown quote status")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}

	repo := mysqlrepo.New(db)
	ids := flag.Args()
	if len(ids) == 0 {
		if ids, err = repo.ListQuoteIDs(ctx, qs); err != nil {
			log.Fatal().Err(err).Msg("list quotes failed")
		}
	}
	if len(ids) == 0 {
		log.Info().Str("status", *status).Msg("no quotes to export")
		return
	}

	renderer, err := pdf.NewRenderer(pdf.NewChromePrinter(cfg.ChromePath, cfg.PDFTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("pdf templates failed to parse")
	}
	docs := app.NewDocumentService(repo, repo, renderer, pdf.NewLogoInliner(cfg.LogoURL), domain.SystemClock{}, cfg.Location())

	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.ExportDir).Msg("create export dir failed")
	}

	log.Info().
		Int("quotes", len(ids)).
		Int("workers", cfg.ExportWorkers).
		Str("dir", cfg.ExportDir).
		Msg("exporter starting")

	rep, err := app.ExportQuotePDFs(ctx, docs, ids, cfg.ExportWorkers, func(name string, b []byte) error {
		return os.WriteFile(filepath.Join(cfg.ExportDir, name), b, 0o644)
	})
	if err != nil {
		log.Error().Err(err).Msg("export interrupted")
	}
	log.Info().Int("written", len(rep.Written)).Int("failed", len(rep.Failures)).Msg("export completed")
	if err != nil || len(rep.Failures) > 0 {
		stop()
		os.Exit(1)
	}
}
