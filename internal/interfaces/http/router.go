package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CompaniTech/compani-api-sub000/internal/application/billing"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/repository"
)

// RouterDeps dependencies for the router.
type RouterDeps struct {
	DraftBills    *billing.DraftBillsUseCase
	FinalizeBills *billing.FinalizeBillsUseCase
	BillRepo      repository.BillRepository
	JWTSecret     string
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Protected routes (Bearer token required). Billing is restricted to
	// back-office roles; auxiliaries never touch bills.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	bills := protected.Group("/bills", RequireRole("admin", "coach"))
	billHandler := NewBillHandler(deps.DraftBills, deps.FinalizeBills, deps.BillRepo)
	bills.Get("/drafts", billHandler.Drafts)
	bills.Post("/", billHandler.Finalize)
	bills.Get("/", billHandler.List)
	bills.Get("/:id", billHandler.GetByID)
}
