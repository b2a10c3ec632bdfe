package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/CompaniTech/compani-api-sub000/internal/application/billing"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// DraftBillsQuery input of the draft computation endpoint. Dates are
// "2006-01-02"; the window is [start, end). Customers optionally narrows the
// batch, comma-separated.
type DraftBillsQuery struct {
	StartDate string `query:"start_date" validate:"required"`
	EndDate   string `query:"end_date" validate:"required"`
	Customers string `query:"customers"`
}

// FinalizeBillsRequest input of bill finalization: the draft batch as the
// draft endpoint returned it, plus the date printed on the bills.
type FinalizeBillsRequest struct {
	BillingDate string             `json:"billing_date" validate:"required"`
	Drafts      billing.DraftBills `json:"drafts" validate:"required"`
}

// BillResponse one finalized bill.
type BillResponse struct {
	ID                string                    `json:"id"`
	Number            string                    `json:"number,omitempty"`
	Date              time.Time                 `json:"date"`
	CustomerID        string                    `json:"customer_id"`
	ThirdPartyPayerID string                    `json:"third_party_payer_id,omitempty"`
	Type              string                    `json:"type"`
	NetInclTaxes      decimal.Decimal           `json:"net_incl_taxes"`
	Subscriptions     []entity.BillSubscription `json:"subscriptions"`
	CreatedAt         time.Time                 `json:"created_at"`
}

// FinalizeBillsResponse output of a finalization run.
type FinalizeBillsResponse struct {
	Bills                  []BillResponse `json:"bills"`
	EventsBilled           int            `json:"events_billed"`
	StatementsTouched      int            `json:"statements_touched"`
	CreditNotesInvalidated int64          `json:"credit_notes_invalidated"`
}

// BillListResponse paginated bill list.
type BillListResponse struct {
	Items []BillResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// ToBillResponse maps a bill entity to its response shape.
func ToBillResponse(b *entity.Bill) BillResponse {
	return BillResponse{
		ID:                b.ID,
		Number:            b.Number,
		Date:              b.Date,
		CustomerID:        b.CustomerID,
		ThirdPartyPayerID: b.ThirdPartyPayerID,
		Type:              b.Type,
		NetInclTaxes:      b.NetInclTaxes,
		Subscriptions:     b.Subscriptions,
		CreatedAt:         b.CreatedAt,
	}
}

// ToFinalizeBillsResponse maps a finalization result.
func ToFinalizeBillsResponse(r *billing.FinalizeResult) FinalizeBillsResponse {
	resp := FinalizeBillsResponse{
		Bills:                  make([]BillResponse, 0, len(r.Bills)),
		EventsBilled:           r.EventsBilled,
		StatementsTouched:      r.StatementsTouched,
		CreditNotesInvalidated: r.CreditNotesInvalidated,
	}
	for i := range r.Bills {
		resp.Bills = append(resp.Bills, ToBillResponse(&r.Bills[i]))
	}
	return resp
}
