package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/CompaniTech/compani-api-sub000/internal/application/billing"
	"github.com/CompaniTech/compani-api-sub000/internal/domain"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
	"github.com/CompaniTech/compani-api-sub000/pkg/logger"
)

const testCompanyID = "company-1"

var (
	windowStart = time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2021, 10, 1, 0, 0, 0, 0, time.UTC)
)

func hourlyService() entity.Service {
	return entity.Service{
		ID:        "service-1",
		CompanyID: testCompanyID,
		Name:      "Home assistance",
		Nature:    entity.NatureHourly,
		Versions: []entity.ServiceRateVersion{{
			StartDate:       time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			UnitExclTaxRate: decimal.NewFromInt(20),
			VAT:             decimal.NewFromInt(20),
		}},
	}
}

func cappedFunding(id string, capHours float64, frequency entity.Frequency) entity.Funding {
	return entity.Funding{
		ID:                id,
		ThirdPartyPayerID: "tpp-1",
		Nature:            entity.NatureHourly,
		Frequency:         frequency,
		CareDays:          []int{0, 1, 2, 3, 4, 5, 6},
		Versions: []entity.FundingVersion{{
			StartDate:       time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			UnitExclTaxRate: decimal.NewFromInt(20),
			CareHours:       decimal.NewFromFloat(capHours),
		}},
	}
}

func event(id, customerID, subscriptionID string, start time.Time, hours int) entity.CareEvent {
	return entity.CareEvent{
		ID:             id,
		CompanyID:      testCompanyID,
		CustomerID:     customerID,
		SubscriptionID: subscriptionID,
		AuxiliaryID:    "aux-1",
		StartDate:      start,
		EndDate:        start.Add(time.Duration(hours) * time.Hour),
	}
}

type fixtures struct {
	events    *fakeEventRepo
	customers *fakeCustomerRepo
	payers    *fakePayerRepo
	ledger    *fakeLedgerRepo
}

func newFixtures() *fixtures {
	return &fixtures{
		events: &fakeEventRepo{},
		customers: &fakeCustomerRepo{customers: []entity.Customer{
			{
				ID:        "customer-a",
				CompanyID: testCompanyID,
				Identity:  entity.Identity{Firstname: "Anne", Lastname: "Martin"},
				Fundings:  []entity.Funding{cappedFunding("funding-a", 3, entity.FrequencyOnce)},
				Subscriptions: []entity.Subscription{
					{ID: "sub-a", CustomerID: "customer-a", Service: hourlyService()},
				},
			},
			{
				ID:        "customer-b",
				CompanyID: testCompanyID,
				Identity:  entity.Identity{Firstname: "Bernard", Lastname: "Durand"},
				Subscriptions: []entity.Subscription{
					{ID: "sub-b", CustomerID: "customer-b", Service: hourlyService()},
				},
			},
		}},
		payers: &fakePayerRepo{payers: []entity.ThirdPartyPayer{
			{ID: "tpp-1", CompanyID: testCompanyID, Name: "Conseil departemental", BillingMode: entity.BillingModeDirect},
		}},
		ledger: newFakeLedgerRepo(),
	}
}

func (f *fixtures) useCase() *appbilling.DraftBillsUseCase {
	return appbilling.NewDraftBillsUseCase(
		f.events, f.customers, f.payers, f.ledger,
		func(time.Time) bool { return false },
		logger.Nop(),
	)
}

// Two customers: one funded with a 3h cap across two 2h events, one unfunded.
// The funded customer gets a payer bill for 3h and a customer bill for the
// overflow hour; the unfunded one a plain customer bill.
func TestCompute_SplitsSharesAcrossCustomerAndPayer(t *testing.T) {
	f := newFixtures()
	f.events.events = []entity.CareEvent{
		event("event-a1", "customer-a", "sub-a", time.Date(2021, 9, 6, 10, 0, 0, 0, time.UTC), 2),
		event("event-a2", "customer-a", "sub-a", time.Date(2021, 9, 7, 10, 0, 0, 0, time.UTC), 2),
		event("event-b1", "customer-b", "sub-b", time.Date(2021, 9, 8, 10, 0, 0, 0, time.UTC), 1),
	}

	drafts, err := f.useCase().Compute(context.Background(), testCompanyID, windowStart, windowEnd, nil)
	require.NoError(t, err)
	require.Len(t, drafts.Groups, 2)
	assert.Equal(t, 3, drafts.EventCount())

	groupA := drafts.Groups[0]
	assert.Equal(t, "customer-a", groupA.CustomerID)
	assert.Equal(t, "Anne Martin", groupA.CustomerName)

	require.NotNil(t, groupA.Customer)
	require.Len(t, groupA.Customer.Subscriptions, 1)
	lineA := groupA.Customer.Subscriptions[0]
	assert.True(t, lineA.ExclTaxes.Equal(decimal.NewFromInt(20)), "customer excl: %s", lineA.ExclTaxes)
	assert.True(t, groupA.Customer.NetInclTaxes.Equal(decimal.NewFromInt(24)), "customer net: %s", groupA.Customer.NetInclTaxes)
	require.Len(t, lineA.Events, 1)
	assert.Equal(t, "event-a2", lineA.Events[0].EventID)

	require.Len(t, groupA.Payers, 1)
	payer := groupA.Payers[0]
	assert.Equal(t, "tpp-1", payer.ThirdPartyPayerID)
	assert.True(t, payer.NetInclTaxes.Equal(decimal.NewFromInt(72)), "payer net: %s", payer.NetInclTaxes)
	require.Len(t, payer.Subscriptions, 1)
	assert.Len(t, payer.Subscriptions[0].Events, 2)
	require.Len(t, payer.Deltas, 1)
	assert.Equal(t, "funding-a", payer.Deltas[0].FundingID)
	assert.Empty(t, payer.Deltas[0].Month)
	assert.True(t, payer.Deltas[0].CareHours.Equal(decimal.NewFromInt(3)), "delta hours: %s", payer.Deltas[0].CareHours)

	snap := groupA.Snapshots["event-a2"]
	assert.True(t, snap.ExclTaxesCustomer.Equal(decimal.NewFromInt(20)))
	assert.True(t, snap.ExclTaxesTpp.Equal(decimal.NewFromInt(20)))
	assert.True(t, snap.CareHours.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "funding-a", snap.FundingID)

	groupB := drafts.Groups[1]
	assert.Equal(t, "customer-b", groupB.CustomerID)
	assert.Empty(t, groupB.Payers)
	require.NotNil(t, groupB.Customer)
	assert.True(t, groupB.Customer.NetInclTaxes.Equal(decimal.NewFromInt(24)), "customer net: %s", groupB.Customer.NetInclTaxes)
}

// The persisted ledger consumption is the starting point of the running
// snapshot: with the cap already exhausted the payer gets nothing.
func TestCompute_SeedsRunningSnapshotFromLedger(t *testing.T) {
	f := newFixtures()
	f.events.events = []entity.CareEvent{
		event("event-a1", "customer-a", "sub-a", time.Date(2021, 9, 6, 10, 0, 0, 0, time.UTC), 2),
	}
	f.ledger.entries[entity.LedgerKey{FundingID: "funding-a"}] = entity.FundingLedgerEntry{
		FundingID: "funding-a",
		CareHours: decimal.NewFromInt(3),
	}

	drafts, err := f.useCase().Compute(context.Background(), testCompanyID, windowStart, windowEnd, []string{"customer-a"})
	require.NoError(t, err)
	require.Len(t, drafts.Groups, 1)

	group := drafts.Groups[0]
	assert.Empty(t, group.Payers, "exhausted funding must not produce a payer bill")
	require.NotNil(t, group.Customer)
	assert.True(t, group.Customer.NetInclTaxes.Equal(decimal.NewFromInt(48)), "customer net: %s", group.Customer.NetInclTaxes)
}

// Monthly fundings consume per calendar month.
func TestCompute_MonthlyFundingKeysDeltaByMonth(t *testing.T) {
	f := newFixtures()
	f.customers.customers[0].Fundings = []entity.Funding{cappedFunding("funding-a", 10, entity.FrequencyMonthly)}
	f.events.events = []entity.CareEvent{
		event("event-a1", "customer-a", "sub-a", time.Date(2021, 9, 6, 10, 0, 0, 0, time.UTC), 2),
	}

	drafts, err := f.useCase().Compute(context.Background(), testCompanyID, windowStart, windowEnd, []string{"customer-a"})
	require.NoError(t, err)
	require.Len(t, drafts.Groups, 1)
	require.Len(t, drafts.Groups[0].Payers, 1)
	require.Len(t, drafts.Groups[0].Payers[0].Deltas, 1)
	assert.Equal(t, "2021-09", drafts.Groups[0].Payers[0].Deltas[0].Month)
}

// A funding whose payer bills the customer itself never produces a payer
// bill here; the customer is charged in full.
func TestCompute_IndirectPayerChargesCustomer(t *testing.T) {
	f := newFixtures()
	f.payers.payers[0].BillingMode = entity.BillingModeIndirect
	f.events.events = []entity.CareEvent{
		event("event-a1", "customer-a", "sub-a", time.Date(2021, 9, 6, 10, 0, 0, 0, time.UTC), 2),
	}

	drafts, err := f.useCase().Compute(context.Background(), testCompanyID, windowStart, windowEnd, []string{"customer-a"})
	require.NoError(t, err)
	require.Len(t, drafts.Groups, 1)
	assert.Empty(t, drafts.Groups[0].Payers)
	require.NotNil(t, drafts.Groups[0].Customer)
	assert.True(t, drafts.Groups[0].Customer.NetInclTaxes.Equal(decimal.NewFromInt(48)))
}

// An event with no effective rate version is upstream data corruption: the
// whole batch aborts, nothing partial comes back.
func TestCompute_MissingRateVersionAbortsBatch(t *testing.T) {
	f := newFixtures()
	f.customers.customers[1].Subscriptions[0].Service.Versions[0].StartDate =
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	f.events.events = []entity.CareEvent{
		event("event-a1", "customer-a", "sub-a", time.Date(2021, 9, 6, 10, 0, 0, 0, time.UTC), 2),
		event("event-b1", "customer-b", "sub-b", time.Date(2021, 9, 8, 10, 0, 0, 0, time.UTC), 1),
	}

	drafts, err := f.useCase().Compute(context.Background(), testCompanyID, windowStart, windowEnd, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingRateVersion))
	assert.Nil(t, drafts)
}

// Same inputs, same output, byte for byte.
func TestCompute_Deterministic(t *testing.T) {
	f := newFixtures()
	f.events.events = []entity.CareEvent{
		event("event-a2", "customer-a", "sub-a", time.Date(2021, 9, 7, 10, 0, 0, 0, time.UTC), 2),
		event("event-a1", "customer-a", "sub-a", time.Date(2021, 9, 6, 10, 0, 0, 0, time.UTC), 2),
		event("event-b1", "customer-b", "sub-b", time.Date(2021, 9, 8, 10, 0, 0, 0, time.UTC), 1),
	}
	uc := f.useCase()

	first, err := uc.Compute(context.Background(), testCompanyID, windowStart, windowEnd, nil)
	require.NoError(t, err)
	second, err := uc.Compute(context.Background(), testCompanyID, windowStart, windowEnd, nil)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}
