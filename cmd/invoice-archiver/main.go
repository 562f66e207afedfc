package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dperrin/invoice-archiver/internal/config"
	"github.com/dperrin/invoice-archiver/internal/drive"
	"github.com/dperrin/invoice-archiver/internal/export"
	"github.com/dperrin/invoice-archiver/internal/gmail"
	"github.com/dperrin/invoice-archiver/internal/googleauth"
	"github.com/dperrin/invoice-archiver/internal/history"
	"github.com/dperrin/invoice-archiver/internal/invoice"
	"github.com/dperrin/invoice-archiver/internal/pipeline"
	"github.com/dperrin/invoice-archiver/internal/server"
	"github.com/dperrin/invoice-archiver/internal/worker"
	"github.com/dperrin/invoice-archiver/pkg/database"
	"github.com/dperrin/invoice-archiver/pkg/logging"
	"github.com/spf13/pflag"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	driveapi "google.golang.org/api/drive/v3"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func main() {
	flags := pflag.NewFlagSet("invoice-archiver", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "config/config.yaml", "path to the configuration file")
	manual := flags.BoolP("manual", "m", false, "one-shot upload of already-downloaded invoice files")
	exportPath := flags.String("export", "", "write the processing ledger to the given XLSX file and exit")
	help := flags.BoolP("help", "h", false, "show usage")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [--manual | --export FILE]\n\nFlags:\n", os.Args[0])
		fmt.Fprint(os.Stderr, flags.FlagUsages())
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		flags.Usage()
		os.Exit(2)
	}
	if *help {
		flags.Usage()
		return
	}

	// Optional .env for credentials and identifiers
	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	switch {
	case *exportPath != "":
		err = runExport(cfg, logger, *exportPath)
	case *manual:
		err = runManual(ctx, cfg, logger)
	default:
		err = runScanner(ctx, cfg, logger)
	}
	if err != nil {
		logger.Fatal("invoice-archiver failed", zap.Error(err))
	}
}

// openHistory opens the ledger database and its repository.
func openHistory(cfg *config.Config, logger *zap.Logger) (*database.DB, *history.Repository, error) {
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	repo, err := history.NewRepository(db.DB, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, repo, nil
}

// runExport writes the processing ledger to an XLSX workbook.
func runExport(cfg *config.Config, logger *zap.Logger, path string) error {
	db, hist, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return export.NewService(hist, logger).WriteXLSX(path)
}

// runManual processes the local invoices directory once.
func runManual(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.ValidateUpload(); err != nil {
		return err
	}
	logger.Info("Starting manual invoice upload",
		zap.String("invoices_dir", cfg.Storage.InvoicesDir))

	tokenSource, err := googleauth.TokenSource(ctx,
		cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile,
		driveapi.DriveScope)
	if err != nil {
		return err
	}

	uploader, err := drive.NewUploader(ctx, cfg.Drive.ParentFolderID, logger,
		option.WithTokenSource(tokenSource))
	if err != nil {
		return err
	}

	db, hist, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	p := pipeline.New(
		invoice.NewExtractor(logger),
		invoice.NewParser(logger),
		uploader,
		hist,
		logger,
	)
	return p.ProcessDir(ctx, cfg.Storage.InvoicesDir)
}

// runScanner runs the mailbox scanner daemon until interrupted.
func runScanner(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.ValidateScanMode(); err != nil {
		return err
	}

	tokenSource, err := googleauth.TokenSource(ctx,
		cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile,
		gmailapi.GmailReadonlyScope,
		gmailapi.GmailModifyScope,
		driveapi.DriveScope)
	if err != nil {
		return err
	}
	creds := option.WithTokenSource(tokenSource)

	source, err := gmail.NewSource(ctx, gmail.Config{
		Query:          cfg.Gmail.Query,
		ArchiveLabelID: cfg.Gmail.ArchiveLabelID,
	}, logger, creds)
	if err != nil {
		return err
	}

	uploader, err := drive.NewUploader(ctx, cfg.Drive.ParentFolderID, logger, creds)
	if err != nil {
		return err
	}

	db, hist, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	p := pipeline.New(
		invoice.NewExtractor(logger),
		invoice.NewParser(logger),
		uploader,
		hist,
		logger,
	)

	scanner := worker.NewScanner(p, source, cfg.Scheduler.Interval, logger)

	manager := worker.NewManager(logger)
	manager.Register(scanner)
	if err := manager.StartAll(ctx); err != nil {
		return err
	}

	var statusServer *server.Server
	if cfg.Server.Enabled {
		statusServer = server.New(cfg.Server.Host, cfg.Server.Port, hist, scanner, logger)
		statusServer.Start()
	}

	logger.Info("Email box scanner running",
		zap.Duration("interval", cfg.Scheduler.Interval))

	// Block until interrupted
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	if err := manager.StopAll(); err != nil {
		logger.Error("Failed to stop workers cleanly", zap.Error(err))
	}
	if statusServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down status server", zap.Error(err))
		}
	}
	return nil
}
