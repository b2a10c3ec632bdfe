package billing

import (
	"github.com/shopspring/decimal"

	"github.com/CompaniTech/compani-api-sub000/internal/domain"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// Allocation splits one event's excl-tax price between the customer and the
// third-party payer, with the ledger delta to commit at finalization.
// Conservation holds by construction: CustomerExclTaxes + PayerExclTaxes
// equals the event price.
type Allocation struct {
	CustomerExclTaxes decimal.Decimal
	PayerExclTaxes    decimal.Decimal
	Delta             entity.LedgerDelta
}

// Allocate computes the payer/customer split for a priced event against a
// funding and a snapshot of its ledger entry. It never mutates shared state:
// the caller owns the snapshot and commits the returned delta through the
// ledger repository.
//
// An exhausted cap is not an error: the payer share is zero and the full
// price falls to the customer.
func Allocate(event *entity.CareEvent, funding *entity.Funding, version *entity.FundingVersion, snapshot entity.FundingLedgerEntry, exclTaxPrice, vat decimal.Decimal) (Allocation, error) {
	if funding.Nature == entity.NatureFixed && funding.Frequency == entity.FrequencyMonthly {
		return Allocation{}, domain.ErrInvalidFundingFrequency
	}

	month := ""
	if funding.Frequency == entity.FrequencyMonthly {
		month = entity.MonthKey(event.StartDate)
	}

	switch funding.Nature {
	case entity.NatureHourly:
		return allocateHourly(event, funding, version, snapshot, exclTaxPrice, month), nil
	case entity.NatureFixed:
		return allocateFixed(funding, version, snapshot, exclTaxPrice, vat), nil
	default:
		return Allocation{}, domain.ErrInvalidInput
	}
}

// allocateHourly charges the payer for the chargeable minutes at the funding
// rate, minus the customer participation. chargeableMinutes is capped by the
// remaining care hours so the ledger never exceeds the cap.
func allocateHourly(event *entity.CareEvent, funding *entity.Funding, version *entity.FundingVersion, snapshot entity.FundingLedgerEntry, exclTaxPrice decimal.Decimal, month string) Allocation {
	remainingMinutes := version.CareHours.Sub(snapshot.CareHours).Mul(sixty)
	if remainingMinutes.IsNegative() {
		remainingMinutes = decimal.Zero
	}
	eventMinutes := decimal.NewFromInt(event.DurationMinutes())
	chargeableMinutes := decimal.Min(eventMinutes, remainingMinutes)

	payerShareRate := one.Sub(version.CustomerParticipationRate.Div(hundred))
	payer := payerShareRate.Mul(version.UnitExclTaxRate).Mul(chargeableMinutes.Div(sixty))

	return Allocation{
		CustomerExclTaxes: exclTaxPrice.Sub(payer),
		PayerExclTaxes:    payer,
		Delta: entity.LedgerDelta{
			FundingID: funding.ID,
			Month:     month,
			CareHours: chargeableMinutes.Div(sixty),
		},
	}
}

// allocateFixed charges the payer up to the remaining incl-tax envelope. The
// ledger accumulates incl-tax amounts; shares are reported excl-tax.
func allocateFixed(funding *entity.Funding, version *entity.FundingVersion, snapshot entity.FundingLedgerEntry, exclTaxPrice, vat decimal.Decimal) Allocation {
	vatFactor := one.Add(vat.Div(hundred))
	priceTTC := exclTaxPrice.Mul(vatFactor)

	remaining := version.AmountTTC.Sub(snapshot.AmountTTC)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	payerTTC := decimal.Min(priceTTC, remaining)
	payerExcl := payerTTC.Div(vatFactor)

	return Allocation{
		CustomerExclTaxes: exclTaxPrice.Sub(payerExcl),
		PayerExclTaxes:    payerExcl,
		Delta: entity.LedgerDelta{
			FundingID: funding.ID,
			AmountTTC: payerTTC,
		},
	}
}
