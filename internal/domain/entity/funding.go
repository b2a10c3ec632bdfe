package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/CompaniTech/compani-api-sub000/internal/domain"
)

// Frequency of a funding's cap consumption horizon.
type Frequency string

const (
	FrequencyOnce    Frequency = "once"    // lifetime cap
	FrequencyMonthly Frequency = "monthly" // cap resets each calendar month
)

// Valid reports whether the frequency is one of the closed set.
func (f Frequency) Valid() bool {
	return f == FrequencyOnce || f == FrequencyMonthly
}

// Care-day indexes used in Funding.CareDays.
// 0 = Monday ... 6 = Sunday, 7 = public holiday.
const CareDayHoliday = 7

// CareDayIndex maps a date to its care-day index.
func CareDayIndex(date time.Time, isHoliday bool) int {
	if isHoliday {
		return CareDayHoliday
	}
	// time.Weekday has Sunday = 0; care days start the week on Monday.
	return (int(date.Weekday()) + 6) % 7
}

// Funding is a customer-level entitlement funded by a third-party payer,
// capped by hours (hourly nature) or amount incl. taxes (fixed nature).
// At most one funding applies to a given event.
type Funding struct {
	ID                string
	CustomerID        string
	ThirdPartyPayerID string
	SubscriptionID    string
	Nature            Nature
	Frequency         Frequency
	CareDays          []int // see CareDayIndex
	Versions          []FundingVersion
}

// FundingVersion is a time-scoped revision of a funding's terms.
type FundingVersion struct {
	StartDate                 time.Time
	EndDate                   time.Time       // zero value = open-ended
	UnitExclTaxRate           decimal.Decimal // hourly rate charged to the payer (hourly nature)
	CareHours                 decimal.Decimal // cap in hours (hourly nature)
	AmountTTC                 decimal.Decimal // cap incl. taxes (fixed nature)
	CustomerParticipationRate decimal.Decimal // percentage left to the customer (hourly nature)
}

// Validate rejects malformed fundings at construction time. The fixed×monthly
// combination is not supported: a fixed funding is a lifetime envelope.
func (f *Funding) Validate() error {
	if !f.Nature.Valid() || !f.Frequency.Valid() {
		return domain.ErrInvalidInput
	}
	if f.Nature == NatureFixed && f.Frequency == FrequencyMonthly {
		return domain.ErrInvalidFundingFrequency
	}
	for _, d := range f.CareDays {
		if d < 0 || d > CareDayHoliday {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

// CoversDay reports whether the funding is eligible on the given care-day index.
func (f *Funding) CoversDay(day int) bool {
	for _, d := range f.CareDays {
		if d == day {
			return true
		}
	}
	return false
}

// VersionAt returns the funding version effective at date: the latest version
// whose window [StartDate, EndDate] covers it. Returns nil when none applies.
func (f *Funding) VersionAt(date time.Time) *FundingVersion {
	var selected *FundingVersion
	for i := range f.Versions {
		v := &f.Versions[i]
		if v.StartDate.After(date) {
			continue
		}
		if !v.EndDate.IsZero() && v.EndDate.Before(date) {
			continue
		}
		if selected == nil || v.StartDate.After(selected.StartDate) {
			selected = v
		}
	}
	return selected
}
