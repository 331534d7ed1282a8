package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"invoice-settlement/internal/accounts"
	"invoice-settlement/internal/analytics"
	"invoice-settlement/internal/billing"
	"invoice-settlement/internal/logger"
	"invoice-settlement/internal/pdf"
	"invoice-settlement/internal/routes"
	"invoice-settlement/internal/storage"
	"invoice-settlement/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Open the database, apply migrations and serve the /api/v1 routes.
Set SEED_DEV=1 to load the development accounts and sample invoices.`,
	Example: `  # Serve on the configured ADDR
  invoice-settlement serve

  # Serve on another port without migrating
  invoice-settlement serve --addr :9090 --skip-migrate`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides ADDR)")
	serveCmd.Flags().Bool("skip-migrate", false, "do not run migrations on start")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	db, err := store.Open(cfg)
	if err != nil {
		return err
	}
	if skip, _ := cmd.Flags().GetBool("skip-migrate"); !skip {
		if err := store.Migrate(db); err != nil {
			return err
		}
	}
	if cfg.SeedDev {
		if err := store.SeedDev(db); err != nil {
			return err
		}
		log.Info().Msg("development data seeded")
	}

	disk, err := storage.NewDisk(cfg.StorageDir)
	if err != nil {
		return err
	}
	repo := store.NewGorm(db)
	bill := billing.NewService(repo, pdf.New(cfg.StorageDir), disk,
		billing.WithGenerators(
			billing.NewGenerator(cfg.InvoicePrefix, cfg.IDMaxAttempts),
			billing.NewGenerator(cfg.ReceiptPrefix, cfg.IDMaxAttempts),
		))

	if cfg.LogLevel != "debug" && cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := routes.Register(routes.Deps{
		Billing:     bill,
		Accounts:    accounts.NewService(repo, cfg.TokenConfig()),
		Analytics:   analytics.NewService(repo, time.Now),
		Images:      disk,
		CORSOrigins: cfg.CORSOrigins,
	})

	addr := cfg.Addr
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		addr = v
	}
	srv := &http.Server{Addr: addr, Handler: engine, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("driver", cfg.DBDriver).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
