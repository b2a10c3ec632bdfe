package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/CompaniTech/compani-api-sub000/internal/application/billing"
	"github.com/CompaniTech/compani-api-sub000/internal/application/dto"
	"github.com/CompaniTech/compani-api-sub000/internal/domain"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// BillHandler handles the billing HTTP requests (protected).
type BillHandler struct {
	draftUC    *billing.DraftBillsUseCase
	finalizeUC *billing.FinalizeBillsUseCase
	billRepo   repository.BillRepository
}

// NewBillHandler builds the handler.
func NewBillHandler(draftUC *billing.DraftBillsUseCase, finalizeUC *billing.FinalizeBillsUseCase, billRepo repository.BillRepository) *BillHandler {
	return &BillHandler{draftUC: draftUC, finalizeUC: finalizeUC, billRepo: billRepo}
}

// Drafts computes the draft bills of a window without persisting anything.
// GET /api/bills/drafts?start_date=...&end_date=...&customers=a,b
func (h *BillHandler) Drafts(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	var in dto.DraftBillsQuery
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "invalid query parameters"})
	}
	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "start_date must be YYYY-MM-DD"})
	}
	end, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "end_date must be YYYY-MM-DD"})
	}
	if !start.Before(end) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "start_date must be before end_date"})
	}
	var customerIDs []string
	if in.Customers != "" {
		for _, id := range strings.Split(in.Customers, ",") {
			if id = strings.TrimSpace(id); id != "" {
				customerIDs = append(customerIDs, id)
			}
		}
	}

	drafts, err := h.draftUC.Compute(c.Context(), companyID, start, end, customerIDs)
	if err != nil {
		if errors.Is(err, domain.ErrMissingRateVersion) || errors.Is(err, domain.ErrInvalidFundingFrequency) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "DATA_INCONSISTENCY", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(drafts)
}

// Finalize persists a draft batch as numbered bills.
// POST /api/bills
func (h *BillHandler) Finalize(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	var in dto.FinalizeBillsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	billingDate, err := time.Parse(dateLayout, in.BillingDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "billing_date must be YYYY-MM-DD"})
	}

	result, err := h.finalizeUC.Finalize(c.Context(), companyID, &in.Drafts, billingDate)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrBillNumberConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NUMBER_CONFLICT", Message: err.Error()})
		}
		// Mid-pipeline failure: earlier steps are committed, the error says
		// which step broke.
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PARTIAL_FAILURE", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToFinalizeBillsResponse(result))
}

// List returns the company's bills, most recent first.
// GET /api/bills
func (h *BillHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "invalid query parameters"})
	}
	page.DefaultPage()

	bills, err := h.billRepo.ListByCompany(c.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	resp := dto.BillListResponse{
		Items: make([]dto.BillResponse, 0, len(bills)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for i := range bills {
		resp.Items = append(resp.Items, dto.ToBillResponse(&bills[i]))
	}
	return c.JSON(resp)
}

// GetByID returns one bill.
// GET /api/bills/:id
func (h *BillHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id required"})
	}
	bill, err := h.billRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "bill not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if bill.CompanyID != companyID {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "access denied"})
	}
	return c.JSON(dto.ToBillResponse(bill))
}
