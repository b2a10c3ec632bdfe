package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/CompaniTech/compani-api-sub000/internal/domain"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/repository"
	"github.com/CompaniTech/compani-api-sub000/internal/observability/metrics"
	"github.com/CompaniTech/compani-api-sub000/pkg/logger"
)

// Pipeline step names, used in logs and error wrapping so operators can tell
// how far a partially-applied batch got.
const (
	stepReserveNumbers    = "reserve_numbers"
	stepPersistBills      = "persist_bills"
	stepMarkEvents        = "mark_events"
	stepApplyLedger       = "apply_ledger"
	stepAdvanceCounter    = "advance_counter"
	stepUpsertStatements  = "upsert_statements"
	stepInvalidateCredits = "invalidate_credit_notes"
)

// FinalizeResult reports what a finalization run wrote. On a partial failure
// the counts reflect the writes that did land.
type FinalizeResult struct {
	Bills                  []entity.Bill
	EventsBilled           int
	DeltasApplied          int
	StatementsTouched      int
	CreditNotesInvalidated int64
}

// FinalizeBillsUseCase turns a draft batch into persisted bills. The pipeline
// is ordered but not transactional: each step commits on its own, and a
// failure mid-pipeline leaves the earlier steps' writes in place. The error
// returned names the failed step; recovery is an operator concern.
type FinalizeBillsUseCase struct {
	billRepo        repository.BillRepository
	eventRepo       repository.EventRepository
	ledgerRepo      repository.LedgerRepository
	numberRepo      repository.BillNumberRepository
	statementRepo   repository.StatementRepository
	creditNoteRepo  repository.CreditNoteRepository
	companyRepo     repository.CompanyRepository
	billPrefix      string
	statementPrefix string
	clock           func() time.Time
	log             *logger.Logger
}

// NewFinalizeBillsUseCase builds the use case. A nil clock means time.Now.
func NewFinalizeBillsUseCase(
	billRepo repository.BillRepository,
	eventRepo repository.EventRepository,
	ledgerRepo repository.LedgerRepository,
	numberRepo repository.BillNumberRepository,
	statementRepo repository.StatementRepository,
	creditNoteRepo repository.CreditNoteRepository,
	companyRepo repository.CompanyRepository,
	billPrefix, statementPrefix string,
	clock func() time.Time,
	log *logger.Logger,
) *FinalizeBillsUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &FinalizeBillsUseCase{
		billRepo:        billRepo,
		eventRepo:       eventRepo,
		ledgerRepo:      ledgerRepo,
		numberRepo:      numberRepo,
		statementRepo:   statementRepo,
		creditNoteRepo:  creditNoteRepo,
		companyRepo:     companyRepo,
		billPrefix:      billPrefix,
		statementPrefix: statementPrefix,
		clock:           clock,
		log:             log,
	}
}

// Finalize persists a draft batch:
//
//  1. reserve a number range from the (company, prefix) counter
//  2. persist the bills, numbered customer bills first
//  3. mark every billed event with its pricing snapshot
//  4. apply the merged ledger deltas
//  5. advance the counter by the consumed count
//  6. create or accumulate the payer statements of the period
//  7. invalidate credit notes referencing the billed events
//
// Validation failures before step 1 leave the store untouched. From step 2 on
// a failure returns the partial result alongside the error; nothing is rolled
// back. The counter advance happens after the bills are persisted, so a
// concurrent batch under the same prefix can observe a stale counter and hit
// ErrBillNumberConflict at step 2.
func (uc *FinalizeBillsUseCase) Finalize(ctx context.Context, companyID string, drafts *DraftBills, billingDate time.Time) (*FinalizeResult, error) {
	began := time.Now()
	outcome := metrics.ResultSuccess
	defer func() {
		metrics.ObserveFinalizeRun(outcome, time.Since(began))
	}()

	if drafts == nil || len(drafts.Groups) == 0 {
		outcome = metrics.ResultError
		return nil, fmt.Errorf("empty draft batch: %w", domain.ErrInvalidInput)
	}
	if companyID == "" || companyID != drafts.CompanyID {
		outcome = metrics.ResultError
		return nil, fmt.Errorf("company mismatch between request and drafts: %w", domain.ErrInvalidInput)
	}
	// Bills are scoped to a company; a batch for an unknown one must not
	// reserve numbers or write anything.
	if _, err := uc.companyRepo.GetByID(ctx, companyID); err != nil {
		outcome = metrics.ResultError
		return nil, fmt.Errorf("company %s: %w", companyID, err)
	}
	for _, group := range drafts.Groups {
		if group.Customer == nil && len(group.Payers) == 0 {
			outcome = metrics.ResultError
			return nil, fmt.Errorf("group %s carries no bill: %w", group.CustomerID, domain.ErrInvalidInput)
		}
		if len(group.Snapshots) == 0 {
			outcome = metrics.ResultError
			return nil, fmt.Errorf("group %s carries no event snapshots: %w", group.CustomerID, domain.ErrInvalidInput)
		}
	}
	if billingDate.IsZero() {
		billingDate = uc.clock()
	}

	result := &FinalizeResult{}

	// 1) Reserve the number range.
	prefix := fmt.Sprintf("%s-%s", uc.billPrefix, billingDate.Format("0106"))
	counter, err := uc.numberRepo.FetchOrCreate(ctx, companyID, prefix)
	if err != nil {
		outcome = metrics.ResultError
		return result, uc.stepFailed(stepReserveNumbers, err)
	}

	bills, consumed := uc.buildBills(companyID, drafts, billingDate, prefix, counter.Seq)

	// 2) Persist the bills.
	for i := range bills {
		if err := uc.billRepo.Create(ctx, &bills[i]); err != nil {
			outcome = metrics.ResultError
			if errors.Is(err, domain.ErrBillNumberConflict) {
				metrics.IncNumberConflict()
			}
			return result, uc.stepFailed(stepPersistBills, err)
		}
		result.Bills = append(result.Bills, bills[i])
		if bills[i].IsPayerBill() {
			metrics.AddBillsCreated(metrics.RecipientPayer, 1)
		} else {
			metrics.AddBillsCreated(metrics.RecipientCustomer, 1)
		}
	}

	// 3) Mark events billed with their snapshots.
	for _, group := range drafts.Groups {
		eventIDs := make([]string, 0, len(group.Snapshots))
		for id := range group.Snapshots {
			eventIDs = append(eventIDs, id)
		}
		sort.Strings(eventIDs)
		for _, eventID := range eventIDs {
			if err := uc.eventRepo.MarkBilled(ctx, eventID, group.Snapshots[eventID]); err != nil {
				outcome = metrics.ResultError
				return result, uc.stepFailed(stepMarkEvents, err)
			}
			result.EventsBilled++
		}
	}

	// 4) Apply the ledger deltas.
	for _, group := range drafts.Groups {
		for _, payer := range group.Payers {
			for _, delta := range payer.Deltas {
				if err := uc.ledgerRepo.ApplyDelta(ctx, delta); err != nil {
					outcome = metrics.ResultError
					return result, uc.stepFailed(stepApplyLedger, err)
				}
				result.DeltasApplied++
			}
		}
	}

	// 5) Advance the counter by what the batch consumed.
	if consumed > 0 {
		if err := uc.numberRepo.Advance(ctx, companyID, prefix, consumed); err != nil {
			outcome = metrics.ResultError
			return result, uc.stepFailed(stepAdvanceCounter, err)
		}
	}

	// 6) Roll payer bills into their period statements.
	for i := range result.Bills {
		bill := &result.Bills[i]
		if !bill.IsPayerBill() || bill.Number == "" {
			continue
		}
		if err := uc.upsertStatement(ctx, companyID, bill, billingDate); err != nil {
			outcome = metrics.ResultError
			return result, uc.stepFailed(stepUpsertStatements, err)
		}
		result.StatementsTouched++
	}

	// 7) Invalidate credit notes referencing the billed events.
	var billedEventIDs []string
	for _, group := range drafts.Groups {
		for id := range group.Snapshots {
			billedEventIDs = append(billedEventIDs, id)
		}
	}
	sort.Strings(billedEventIDs)
	if len(billedEventIDs) > 0 {
		invalidated, err := uc.creditNoteRepo.InvalidateByEvents(ctx, companyID, billedEventIDs)
		if err != nil {
			outcome = metrics.ResultError
			return result, uc.stepFailed(stepInvalidateCredits, err)
		}
		result.CreditNotesInvalidated = invalidated
	}

	uc.log.Info().
		Str("company_id", companyID).
		Str("prefix", prefix).
		Int("bills", len(result.Bills)).
		Int("events", result.EventsBilled).
		Int("statements", result.StatementsTouched).
		Msg("bill batch finalized")
	return result, nil
}

// buildBills materializes the bill entities of a batch and assigns numbers
// from seq upward: numbered customer bills first, then numbered payer bills,
// both in group order. Externally-billed payers get no number. Returns the
// bills and how many numbers were consumed.
func (uc *FinalizeBillsUseCase) buildBills(companyID string, drafts *DraftBills, billingDate time.Time, prefix string, seq int64) ([]entity.Bill, int64) {
	now := uc.clock()
	var bills []entity.Bill
	next := seq

	for _, group := range drafts.Groups {
		if group.Customer == nil {
			continue
		}
		bill := entity.Bill{
			ID:            uuid.NewString(),
			CompanyID:     companyID,
			Number:        fmt.Sprintf("%s%05d", prefix, next),
			Date:          billingDate,
			CustomerID:    group.CustomerID,
			Type:          entity.BillTypeAutomatic,
			NetInclTaxes:  group.Customer.NetInclTaxes,
			Subscriptions: toBillSubscriptions(group.Customer.Subscriptions),
			CreatedAt:     now,
		}
		next++
		bills = append(bills, bill)
	}
	for _, group := range drafts.Groups {
		for _, payer := range group.Payers {
			bill := entity.Bill{
				ID:                uuid.NewString(),
				CompanyID:         companyID,
				Date:              billingDate,
				CustomerID:        group.CustomerID,
				ThirdPartyPayerID: payer.ThirdPartyPayerID,
				Type:              entity.BillTypeAutomatic,
				NetInclTaxes:      payer.NetInclTaxes,
				Subscriptions:     toBillSubscriptions(payer.Subscriptions),
				CreatedAt:         now,
			}
			if !payer.ExternalBilling {
				bill.Number = fmt.Sprintf("%s%05d", prefix, next)
				next++
			}
			bills = append(bills, bill)
		}
	}
	return bills, next - seq
}

// upsertStatement accumulates a payer bill into its period statement,
// creating the statement with its own sequence number on the period's first
// payer bill.
func (uc *FinalizeBillsUseCase) upsertStatement(ctx context.Context, companyID string, bill *entity.Bill, billingDate time.Time) error {
	period := entity.MonthKey(billingDate)
	existing, err := uc.statementRepo.FindByPeriod(ctx, companyID, bill.ThirdPartyPayerID, period)
	if err != nil {
		return err
	}
	if existing != nil {
		return uc.statementRepo.AddToNet(ctx, existing.ID, bill.NetInclTaxes)
	}

	prefix := fmt.Sprintf("%s-%s", uc.statementPrefix, billingDate.Format("0106"))
	counter, err := uc.numberRepo.FetchOrCreate(ctx, companyID, prefix)
	if err != nil {
		return err
	}
	if err := uc.numberRepo.Advance(ctx, companyID, prefix, 1); err != nil {
		return err
	}

	now := uc.clock()
	statement := &entity.PayerStatement{
		ID:                uuid.NewString(),
		CompanyID:         companyID,
		ThirdPartyPayerID: bill.ThirdPartyPayerID,
		Period:            period,
		Number:            fmt.Sprintf("%s%05d", prefix, counter.Seq),
		NetInclTaxes:      bill.NetInclTaxes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return uc.statementRepo.Create(ctx, statement)
}

func (uc *FinalizeBillsUseCase) stepFailed(step string, err error) error {
	metrics.IncFinalizeStepError(step)
	uc.log.Error().
		Err(err).
		Str("step", step).
		Msg("finalization step failed, earlier steps remain applied")
	return fmt.Errorf("finalize step %s (earlier steps remain applied): %w", step, err)
}

func toBillSubscriptions(lines []DraftBillLine) []entity.BillSubscription {
	out := make([]entity.BillSubscription, 0, len(lines))
	for _, l := range lines {
		out = append(out, entity.BillSubscription{
			SubscriptionID: l.SubscriptionID,
			ServiceName:    l.ServiceName,
			ServiceNature:  l.ServiceNature,
			VAT:            l.VAT,
			Events:         l.Events,
			Hours:          l.Hours,
			UnitExclTaxes:  l.UnitExclTaxes,
			ExclTaxes:      l.ExclTaxes,
			InclTaxes:      l.InclTaxes,
			Discount:       l.Discount,
		})
	}
	return out
}
