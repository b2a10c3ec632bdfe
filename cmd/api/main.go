package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appbilling "github.com/CompaniTech/compani-api-sub000/internal/application/billing"
	"github.com/CompaniTech/compani-api-sub000/internal/infrastructure/postgres"
	httpRouter "github.com/CompaniTech/compani-api-sub000/internal/interfaces/http"
	"github.com/CompaniTech/compani-api-sub000/internal/observability/metrics"
	"github.com/CompaniTech/compani-api-sub000/pkg/config"
	"github.com/CompaniTech/compani-api-sub000/pkg/holidays"
	"github.com/CompaniTech/compani-api-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("starting application")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection")
	}
	defer pool.Close()

	metrics.Init()

	customerRepo := postgres.NewCustomerRepository(pool)
	payerRepo := postgres.NewThirdPartyPayerRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	billRepo := postgres.NewBillRepository(pool)
	numberRepo := postgres.NewBillNumberRepository(pool)
	statementRepo := postgres.NewStatementRepository(pool)
	creditNoteRepo := postgres.NewCreditNoteRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)

	draftBillsUC := appbilling.NewDraftBillsUseCase(
		eventRepo, customerRepo, payerRepo, ledgerRepo,
		holidays.IsPublicHoliday, log,
	)
	finalizeBillsUC := appbilling.NewFinalizeBillsUseCase(
		billRepo, eventRepo, ledgerRepo, numberRepo, statementRepo, creditNoteRepo, companyRepo,
		cfg.Billing.BillPrefix, cfg.Billing.StatementPrefix,
		time.Now, log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		DraftBills:    draftBillsUC,
		FinalizeBills: finalizeBillsUC,
		BillRepo:      billRepo,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("application stopped")
}
