package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/billing"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/repository"
	"github.com/CompaniTech/compani-api-sub000/internal/observability/metrics"
	"github.com/CompaniTech/compani-api-sub000/pkg/logger"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	sixty   = decimal.NewFromInt(60)
)

// HolidayChecker reports whether a date is a public holiday (care-day 7).
type HolidayChecker func(time.Time) bool

// DraftBillsUseCase turns the unbilled events of a billing window into draft
// bill groups: per customer, one optional customer bill plus zero-or-more
// payer bills carrying their ledger deltas. Nothing is persisted here.
type DraftBillsUseCase struct {
	eventRepo    repository.EventRepository
	customerRepo repository.CustomerRepository
	payerRepo    repository.ThirdPartyPayerRepository
	ledgerRepo   repository.LedgerRepository
	isHoliday    HolidayChecker
	log          *logger.Logger
}

// NewDraftBillsUseCase builds the use case.
func NewDraftBillsUseCase(
	eventRepo repository.EventRepository,
	customerRepo repository.CustomerRepository,
	payerRepo repository.ThirdPartyPayerRepository,
	ledgerRepo repository.LedgerRepository,
	isHoliday HolidayChecker,
	log *logger.Logger,
) *DraftBillsUseCase {
	return &DraftBillsUseCase{
		eventRepo:    eventRepo,
		customerRepo: customerRepo,
		payerRepo:    payerRepo,
		ledgerRepo:   ledgerRepo,
		isHoliday:    isHoliday,
		log:          log,
	}
}

// Compute prices and allocates every unbilled event of the window and
// aggregates the results into draft bill groups. Deterministic: the same
// events, fundings and ledger snapshot always produce the same output; the
// wall clock is never consulted, only the caller-supplied window.
//
// A subscription with no rate version effective at an event date aborts the
// whole batch before anything else happens (upstream data corruption).
func (uc *DraftBillsUseCase) Compute(ctx context.Context, companyID string, start, end time.Time, customerIDs []string) (*DraftBills, error) {
	began := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveDraftRun(result, time.Since(began))
	}()

	customers, err := uc.customerRepo.ListForBilling(ctx, companyID, customerIDs)
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("load customers: %w", err)
	}
	events, err := uc.eventRepo.ListNotBilled(ctx, companyID, start, end, customerIDs)
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("load events: %w", err)
	}
	payers, err := uc.payerRepo.ListByCompany(ctx, companyID)
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("load third party payers: %w", err)
	}
	payersByID := make(map[string]entity.ThirdPartyPayer, len(payers))
	for _, p := range payers {
		payersByID[p.ID] = p
	}

	eventsByCustomer := groupEvents(events)

	snapshot, err := uc.seedLedgerSnapshot(ctx, customers, payersByID, start, end)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	drafts := &DraftBills{CompanyID: companyID, StartDate: start, EndDate: end}

	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
	for i := range customers {
		customer := &customers[i]
		bySubscription, ok := eventsByCustomer[customer.ID]
		if !ok {
			continue
		}
		group, err := uc.computeGroup(customer, payersByID, bySubscription, snapshot)
		if err != nil {
			result = metrics.ResultError
			return nil, err
		}
		if group != nil {
			drafts.Groups = append(drafts.Groups, *group)
		}
	}

	uc.log.Info().
		Str("company_id", companyID).
		Int("groups", len(drafts.Groups)).
		Int("events", drafts.EventCount()).
		Msg("draft bills computed")
	return drafts, nil
}

// computeGroup builds the draft group of one customer: iterate its events
// chronologically per subscription, price, allocate against the running
// ledger snapshot, and accumulate into customer and per-payer lines.
func (uc *DraftBillsUseCase) computeGroup(
	customer *entity.Customer,
	payersByID map[string]entity.ThirdPartyPayer,
	bySubscription map[string][]entity.CareEvent,
	snapshot map[entity.LedgerKey]entity.FundingLedgerEntry,
) (*CustomerBillGroup, error) {
	group := &CustomerBillGroup{
		CustomerID:   customer.ID,
		CustomerName: customer.Identity.FullName(),
		Snapshots:    make(map[string]entity.EventBillingSnapshot),
	}

	customerLines := newLineSet()
	payerAccs := make(map[string]*payerAccumulator)
	var payerOrder []string

	subscriptions := make([]entity.Subscription, len(customer.Subscriptions))
	copy(subscriptions, customer.Subscriptions)
	sort.Slice(subscriptions, func(i, j int) bool { return subscriptions[i].ID < subscriptions[j].ID })

	for si := range subscriptions {
		sub := &subscriptions[si]
		events := bySubscription[sub.ID]
		if len(events) == 0 {
			continue
		}
		fundings := eligibleFundings(customer.Fundings, sub.ID, payersByID)

		for ei := range events {
			ev := &events[ei]

			version, err := billing.SelectRateVersion(ev.StartDate, &sub.Service)
			if err != nil {
				return nil, fmt.Errorf("customer %s, subscription %s, event %s: %w", customer.ID, sub.ID, ev.ID, err)
			}
			holiday := uc.isHoliday(ev.StartDate)
			price := billing.PriceEvent(ev, sub.Service.Nature, version, holiday)
			vatFactor := one.Add(version.VAT.Div(hundred))

			funding, fundingVersion := billing.SelectFunding(ev.StartDate, fundings, holiday)

			alloc := billing.Allocation{CustomerExclTaxes: price.ExclTaxes}
			if funding != nil {
				key := ledgerKeyFor(funding, ev.StartDate)
				entry := snapshot[key]
				entry.FundingID = key.FundingID
				entry.Month = key.Month

				alloc, err = billing.Allocate(ev, funding, fundingVersion, entry, price.ExclTaxes, version.VAT)
				if err != nil {
					return nil, fmt.Errorf("customer %s, funding %s: %w", customer.ID, funding.ID, err)
				}

				// Advance the running snapshot so later events in the batch see
				// the consumption of earlier ones.
				entry.CareHours = entry.CareHours.Add(alloc.Delta.CareHours)
				entry.AmountTTC = entry.AmountTTC.Add(alloc.Delta.AmountTTC)
				snapshot[key] = entry
			}

			surchargeNames := make([]string, 0, len(price.Surcharges))
			for _, s := range price.Surcharges {
				surchargeNames = append(surchargeNames, s.Name)
			}

			snap := entity.EventBillingSnapshot{
				ExclTaxesCustomer: alloc.CustomerExclTaxes,
				InclTaxesCustomer: alloc.CustomerExclTaxes.Mul(vatFactor),
				ExclTaxesTpp:      alloc.PayerExclTaxes,
				InclTaxesTpp:      alloc.PayerExclTaxes.Mul(vatFactor),
				CareHours:         alloc.Delta.CareHours,
				Surcharges:        surchargeNames,
			}
			if funding != nil {
				snap.FundingID = funding.ID
				snap.ThirdPartyPayerID = funding.ThirdPartyPayerID
			}
			group.Snapshots[ev.ID] = snap

			if alloc.CustomerExclTaxes.IsPositive() {
				line := customerLines.get(sub, version)
				accumulate(line, sub.Service.Nature, ev, entity.BillEventLine{
					EventID:     ev.ID,
					AuxiliaryID: ev.AuxiliaryID,
					StartDate:   ev.StartDate,
					EndDate:     ev.EndDate,
					ExclTaxes:   alloc.CustomerExclTaxes,
					InclTaxes:   alloc.CustomerExclTaxes.Mul(vatFactor),
					Surcharges:  surchargeNames,
				})
			}

			if funding != nil && (alloc.PayerExclTaxes.IsPositive() || !alloc.Delta.IsZero()) {
				acc, ok := payerAccs[funding.ThirdPartyPayerID]
				if !ok {
					payer := payersByID[funding.ThirdPartyPayerID]
					acc = &payerAccumulator{
						payer:  payer,
						lines:  newLineSet(),
						deltas: make(map[entity.LedgerKey]*entity.LedgerDelta),
					}
					payerAccs[funding.ThirdPartyPayerID] = acc
					payerOrder = append(payerOrder, funding.ThirdPartyPayerID)
				}
				line := acc.lines.get(sub, version)
				accumulate(line, sub.Service.Nature, ev, entity.BillEventLine{
					EventID:     ev.ID,
					AuxiliaryID: ev.AuxiliaryID,
					StartDate:   ev.StartDate,
					EndDate:     ev.EndDate,
					ExclTaxes:   alloc.PayerExclTaxes,
					InclTaxes:   alloc.PayerExclTaxes.Mul(vatFactor),
					FundingID:   funding.ID,
					CareHours:   alloc.Delta.CareHours,
				})
				acc.mergeDelta(alloc.Delta)
			}
		}
	}

	if lines := customerLines.ordered(); len(lines) > 0 {
		draft := &CustomerDraftBill{
			CustomerID:    customer.ID,
			CustomerName:  customer.Identity.FullName(),
			Subscriptions: lines,
		}
		for _, l := range lines {
			draft.NetInclTaxes = draft.NetInclTaxes.Add(l.InclTaxes)
		}
		group.Customer = draft
	}
	sort.Strings(payerOrder)
	for _, payerID := range payerOrder {
		acc := payerAccs[payerID]
		group.Payers = append(group.Payers, acc.build())
	}

	if group.Customer == nil && len(group.Payers) == 0 {
		return nil, nil
	}
	return group, nil
}

// seedLedgerSnapshot loads the persisted consumption for every ledger entry
// the batch may touch. Missing entries start at zero.
func (uc *DraftBillsUseCase) seedLedgerSnapshot(
	ctx context.Context,
	customers []entity.Customer,
	payersByID map[string]entity.ThirdPartyPayer,
	start, end time.Time,
) (map[entity.LedgerKey]entity.FundingLedgerEntry, error) {
	var keys []entity.LedgerKey
	for i := range customers {
		for j := range customers[i].Fundings {
			f := &customers[i].Fundings[j]
			payer, ok := payersByID[f.ThirdPartyPayerID]
			if !ok || payer.BillingMode != entity.BillingModeDirect {
				continue
			}
			if f.Frequency == entity.FrequencyMonthly {
				for _, month := range monthsIn(start, end) {
					keys = append(keys, entity.LedgerKey{FundingID: f.ID, Month: month})
				}
			} else {
				keys = append(keys, entity.LedgerKey{FundingID: f.ID})
			}
		}
	}

	snapshot := make(map[entity.LedgerKey]entity.FundingLedgerEntry, len(keys))
	if len(keys) == 0 {
		return snapshot, nil
	}
	entries, err := uc.ledgerRepo.Snapshot(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load funding ledger: %w", err)
	}
	for _, e := range entries {
		snapshot[e.Key()] = e
	}
	return snapshot, nil
}

// eligibleFundings keeps the customer fundings that can pay for a
// subscription: bound to it (or customer-wide) and funded by a payer in
// direct billing mode.
func eligibleFundings(fundings []entity.Funding, subscriptionID string, payersByID map[string]entity.ThirdPartyPayer) []entity.Funding {
	var out []entity.Funding
	for _, f := range fundings {
		if f.SubscriptionID != "" && f.SubscriptionID != subscriptionID {
			continue
		}
		payer, ok := payersByID[f.ThirdPartyPayerID]
		if !ok || payer.BillingMode != entity.BillingModeDirect {
			continue
		}
		out = append(out, f)
	}
	return out
}

func ledgerKeyFor(funding *entity.Funding, date time.Time) entity.LedgerKey {
	if funding.Frequency == entity.FrequencyMonthly {
		return entity.LedgerKey{FundingID: funding.ID, Month: entity.MonthKey(date)}
	}
	return entity.LedgerKey{FundingID: funding.ID}
}

// groupEvents indexes events by customer then subscription, keeping each
// slice in chronological order.
func groupEvents(events []entity.CareEvent) map[string]map[string][]entity.CareEvent {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].StartDate.Before(events[j].StartDate)
		}
		return events[i].ID < events[j].ID
	})
	byCustomer := make(map[string]map[string][]entity.CareEvent)
	for _, ev := range events {
		bySub, ok := byCustomer[ev.CustomerID]
		if !ok {
			bySub = make(map[string][]entity.CareEvent)
			byCustomer[ev.CustomerID] = bySub
		}
		bySub[ev.SubscriptionID] = append(bySub[ev.SubscriptionID], ev)
	}
	return byCustomer
}

// monthsIn lists the "2006-01" keys of every calendar month touched by
// [start, end).
func monthsIn(start, end time.Time) []string {
	var months []string
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for cursor.Before(end) {
		months = append(months, cursor.Format("2006-01"))
		cursor = cursor.AddDate(0, 1, 0)
	}
	return months
}

// lineSet accumulates draft lines per subscription, preserving first-seen
// order for reproducible output.
type lineSet struct {
	byID  map[string]*DraftBillLine
	order []string
}

func newLineSet() *lineSet {
	return &lineSet{byID: make(map[string]*DraftBillLine)}
}

func (s *lineSet) get(sub *entity.Subscription, version *entity.ServiceRateVersion) *DraftBillLine {
	if line, ok := s.byID[sub.ID]; ok {
		return line
	}
	line := &DraftBillLine{
		SubscriptionID: sub.ID,
		ServiceName:    sub.Service.Name,
		ServiceNature:  sub.Service.Nature,
		VAT:            version.VAT,
		UnitExclTaxes:  version.UnitExclTaxRate,
	}
	s.byID[sub.ID] = line
	s.order = append(s.order, sub.ID)
	return line
}

func (s *lineSet) ordered() []DraftBillLine {
	lines := make([]DraftBillLine, 0, len(s.order))
	for _, id := range s.order {
		lines = append(lines, *s.byID[id])
	}
	return lines
}

func accumulate(line *DraftBillLine, nature entity.Nature, ev *entity.CareEvent, billed entity.BillEventLine) {
	if nature == entity.NatureHourly {
		line.Hours = line.Hours.Add(decimal.NewFromInt(ev.DurationMinutes()).Div(sixty))
	}
	line.ExclTaxes = line.ExclTaxes.Add(billed.ExclTaxes)
	line.InclTaxes = line.InclTaxes.Add(billed.InclTaxes)
	line.Events = append(line.Events, billed)
}

// payerAccumulator builds one payer draft, merging ledger deltas by entry so
// the finalizer applies a single increment per (funding, month).
type payerAccumulator struct {
	payer      entity.ThirdPartyPayer
	lines      *lineSet
	deltas     map[entity.LedgerKey]*entity.LedgerDelta
	deltaOrder []entity.LedgerKey
}

func (a *payerAccumulator) mergeDelta(d entity.LedgerDelta) {
	if d.IsZero() {
		return
	}
	key := d.Key()
	merged, ok := a.deltas[key]
	if !ok {
		copied := d
		a.deltas[key] = &copied
		a.deltaOrder = append(a.deltaOrder, key)
		return
	}
	merged.CareHours = merged.CareHours.Add(d.CareHours)
	merged.AmountTTC = merged.AmountTTC.Add(d.AmountTTC)
}

func (a *payerAccumulator) build() PayerDraftBill {
	draft := PayerDraftBill{
		ThirdPartyPayerID: a.payer.ID,
		PayerName:         a.payer.Name,
		ExternalBilling:   a.payer.ExternalBilling,
		Subscriptions:     a.lines.ordered(),
	}
	for _, l := range draft.Subscriptions {
		draft.NetInclTaxes = draft.NetInclTaxes.Add(l.InclTaxes)
	}
	for _, key := range a.deltaOrder {
		draft.Deltas = append(draft.Deltas, *a.deltas[key])
	}
	return draft
}
