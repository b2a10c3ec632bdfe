package billing_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CompaniTech/compani-api-sub000/internal/domain"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// In-memory repository fakes. Each one can be told to fail a single method,
// which the finalizer tests use to stop the pipeline mid-way.

var errForced = fmt.Errorf("forced failure")

type fakeEventRepo struct {
	events []entity.CareEvent
	billed map[string]entity.EventBillingSnapshot

	failMarkBilled bool
}

func (r *fakeEventRepo) ListNotBilled(_ context.Context, companyID string, start, end time.Time, customerIDs []string) ([]entity.CareEvent, error) {
	allowed := make(map[string]bool, len(customerIDs))
	for _, id := range customerIDs {
		allowed[id] = true
	}
	var out []entity.CareEvent
	for _, ev := range r.events {
		if ev.CompanyID != companyID || ev.IsBilled {
			continue
		}
		if ev.StartDate.Before(start) || !ev.StartDate.Before(end) {
			continue
		}
		if len(allowed) > 0 && !allowed[ev.CustomerID] {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r *fakeEventRepo) MarkBilled(_ context.Context, eventID string, snapshot entity.EventBillingSnapshot) error {
	if r.failMarkBilled {
		return errForced
	}
	if r.billed == nil {
		r.billed = make(map[string]entity.EventBillingSnapshot)
	}
	r.billed[eventID] = snapshot
	return nil
}

type fakeCustomerRepo struct {
	customers []entity.Customer
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	for i := range r.customers {
		if r.customers[i].ID == id {
			return &r.customers[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCustomerRepo) ListForBilling(_ context.Context, companyID string, ids []string) ([]entity.Customer, error) {
	allowed := make(map[string]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}
	var out []entity.Customer
	for _, c := range r.customers {
		if c.CompanyID != companyID {
			continue
		}
		if len(allowed) > 0 && !allowed[c.ID] {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

type fakeCompanyRepo struct {
	companies []entity.Company
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	for i := range r.companies {
		if r.companies[i].ID == id {
			return &r.companies[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakePayerRepo struct {
	payers []entity.ThirdPartyPayer
}

func (r *fakePayerRepo) ListByCompany(_ context.Context, companyID string) ([]entity.ThirdPartyPayer, error) {
	var out []entity.ThirdPartyPayer
	for _, p := range r.payers {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeLedgerRepo struct {
	entries map[entity.LedgerKey]entity.FundingLedgerEntry

	failApplyDelta bool
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: make(map[entity.LedgerKey]entity.FundingLedgerEntry)}
}

func (r *fakeLedgerRepo) Snapshot(_ context.Context, keys []entity.LedgerKey) ([]entity.FundingLedgerEntry, error) {
	var out []entity.FundingLedgerEntry
	for _, key := range keys {
		if entry, ok := r.entries[key]; ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) ApplyDelta(_ context.Context, delta entity.LedgerDelta) error {
	if r.failApplyDelta {
		return errForced
	}
	entry := r.entries[delta.Key()]
	entry.FundingID = delta.FundingID
	entry.Month = delta.Month
	entry.CareHours = entry.CareHours.Add(delta.CareHours)
	entry.AmountTTC = entry.AmountTTC.Add(delta.AmountTTC)
	r.entries[delta.Key()] = entry
	return nil
}

type fakeBillRepo struct {
	bills []entity.Bill
}

func (r *fakeBillRepo) Create(_ context.Context, bill *entity.Bill) error {
	if bill.Number != "" {
		for _, existing := range r.bills {
			if existing.CompanyID == bill.CompanyID && existing.Number == bill.Number {
				return domain.ErrBillNumberConflict
			}
		}
	}
	r.bills = append(r.bills, *bill)
	return nil
}

func (r *fakeBillRepo) GetByID(_ context.Context, id string) (*entity.Bill, error) {
	for i := range r.bills {
		if r.bills[i].ID == id {
			return &r.bills[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeBillRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]entity.Bill, error) {
	var out []entity.Bill
	for _, b := range r.bills {
		if b.CompanyID == companyID {
			out = append(out, b)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type fakeNumberRepo struct {
	counters map[string]int64

	failAdvance bool
}

func newFakeNumberRepo() *fakeNumberRepo {
	return &fakeNumberRepo{counters: make(map[string]int64)}
}

func (r *fakeNumberRepo) key(companyID, prefix string) string {
	return companyID + "/" + prefix
}

func (r *fakeNumberRepo) FetchOrCreate(_ context.Context, companyID, prefix string) (*entity.BillNumberCounter, error) {
	key := r.key(companyID, prefix)
	if _, ok := r.counters[key]; !ok {
		r.counters[key] = 1
	}
	return &entity.BillNumberCounter{CompanyID: companyID, Prefix: prefix, Seq: r.counters[key]}, nil
}

func (r *fakeNumberRepo) Advance(_ context.Context, companyID, prefix string, consumed int64) error {
	if r.failAdvance {
		return errForced
	}
	r.counters[r.key(companyID, prefix)] += consumed
	return nil
}

type fakeStatementRepo struct {
	statements []entity.PayerStatement
}

func (r *fakeStatementRepo) FindByPeriod(_ context.Context, companyID, payerID, period string) (*entity.PayerStatement, error) {
	for i := range r.statements {
		s := &r.statements[i]
		if s.CompanyID == companyID && s.ThirdPartyPayerID == payerID && s.Period == period {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeStatementRepo) Create(_ context.Context, statement *entity.PayerStatement) error {
	r.statements = append(r.statements, *statement)
	return nil
}

func (r *fakeStatementRepo) AddToNet(_ context.Context, id string, amount decimal.Decimal) error {
	for i := range r.statements {
		if r.statements[i].ID == id {
			r.statements[i].NetInclTaxes = r.statements[i].NetInclTaxes.Add(amount)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeCreditNoteRepo struct {
	notesByEvent map[string]int
	invalidated  []string
}

func (r *fakeCreditNoteRepo) InvalidateByEvents(_ context.Context, _ string, eventIDs []string) (int64, error) {
	var touched int64
	for _, id := range eventIDs {
		r.invalidated = append(r.invalidated, id)
		touched += int64(r.notesByEvent[id])
	}
	return touched, nil
}
