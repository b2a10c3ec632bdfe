package billing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/billing"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

func hourlyVersion(rate float64, plan *entity.SurchargePlan) *entity.ServiceRateVersion {
	return &entity.ServiceRateVersion{
		StartDate:       time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		UnitExclTaxRate: decimal.NewFromFloat(rate),
		VAT:             decimal.NewFromInt(20),
		SurchargePlan:   plan,
	}
}

func eventAt(start, end time.Time) *entity.CareEvent {
	return &entity.CareEvent{
		ID:        "event-1",
		StartDate: start,
		EndDate:   end,
	}
}

func TestPriceEvent_HourlyWithoutSurcharge(t *testing.T) {
	// Tuesday 2h event at 20/h -> 40, coefficient stays 1.0.
	ev := eventAt(
		time.Date(2021, 9, 7, 10, 0, 0, 0, time.UTC),
		time.Date(2021, 9, 7, 12, 0, 0, 0, time.UTC),
	)
	price := billing.PriceEvent(ev, entity.NatureHourly, hourlyVersion(20, nil), false)
	assert.True(t, price.ExclTaxes.Equal(decimal.NewFromInt(40)), "got %s", price.ExclTaxes)
	assert.Empty(t, price.Surcharges)
}

func TestPriceEvent_FixedIgnoresDuration(t *testing.T) {
	ev := eventAt(
		time.Date(2021, 9, 7, 10, 0, 0, 0, time.UTC),
		time.Date(2021, 9, 7, 13, 30, 0, 0, time.UTC),
	)
	version := hourlyVersion(150, &entity.SurchargePlan{Rules: []entity.SurchargeRule{
		{Name: "Sunday", Percentage: decimal.NewFromInt(25), DayType: entity.DaySunday},
	}})
	price := billing.PriceEvent(ev, entity.NatureFixed, version, false)
	assert.True(t, price.ExclTaxes.Equal(decimal.NewFromInt(150)))
	assert.Empty(t, price.Surcharges, "fixed nature never applies surcharges")
}

func TestPriceEvent_SundaySurcharge(t *testing.T) {
	// Sunday 2h at 20/h with +25% Sunday rule -> 40 × 1.25 = 50.
	ev := eventAt(
		time.Date(2021, 9, 5, 10, 0, 0, 0, time.UTC),
		time.Date(2021, 9, 5, 12, 0, 0, 0, time.UTC),
	)
	plan := &entity.SurchargePlan{Rules: []entity.SurchargeRule{
		{Name: "Sunday", Percentage: decimal.NewFromInt(25), DayType: entity.DaySunday},
	}}
	price := billing.PriceEvent(ev, entity.NatureHourly, hourlyVersion(20, plan), false)
	assert.True(t, price.ExclTaxes.Equal(decimal.NewFromInt(50)), "got %s", price.ExclTaxes)
	require.Len(t, price.Surcharges, 1)
	assert.Equal(t, "Sunday", price.Surcharges[0].Name)
}

func TestPriceEvent_PublicHolidaySurcharge(t *testing.T) {
	ev := eventAt(
		time.Date(2021, 7, 14, 10, 0, 0, 0, time.UTC),
		time.Date(2021, 7, 14, 11, 0, 0, 0, time.UTC),
	)
	plan := &entity.SurchargePlan{Rules: []entity.SurchargeRule{
		{Name: "Public holiday", Percentage: decimal.NewFromInt(50), DayType: entity.DayPublicHoliday},
	}}
	price := billing.PriceEvent(ev, entity.NatureHourly, hourlyVersion(20, plan), true)
	assert.True(t, price.ExclTaxes.Equal(decimal.NewFromInt(30)), "got %s", price.ExclTaxes)
}

func TestPriceEvent_EveningWindowProration(t *testing.T) {
	// Event 19:00-22:00 (180 min), evening window 20:00-23:00 with +20%.
	// Overlap 120/180 -> coefficient 1 + (2/3 × 0.20) = 1.1333...
	// Price = 3h × 21 × coefficient = 71.40.
	ev := eventAt(
		time.Date(2021, 9, 7, 19, 0, 0, 0, time.UTC),
		time.Date(2021, 9, 7, 22, 0, 0, 0, time.UTC),
	)
	plan := &entity.SurchargePlan{Rules: []entity.SurchargeRule{
		{Name: "Evening", Percentage: decimal.NewFromInt(20), StartHour: "20:00", EndHour: "23:00"},
	}}
	price := billing.PriceEvent(ev, entity.NatureHourly, hourlyVersion(21, plan), false)
	expected := decimal.NewFromFloat(71.40)
	assert.True(t, price.ExclTaxes.Sub(expected).Abs().LessThan(decimal.NewFromFloat(0.0001)),
		"got %s", price.ExclTaxes)
	require.Len(t, price.Surcharges, 1)
	assert.Equal(t, "Evening", price.Surcharges[0].Name)
}

func TestPriceEvent_WindowOutsideEvent(t *testing.T) {
	ev := eventAt(
		time.Date(2021, 9, 7, 9, 0, 0, 0, time.UTC),
		time.Date(2021, 9, 7, 11, 0, 0, 0, time.UTC),
	)
	plan := &entity.SurchargePlan{Rules: []entity.SurchargeRule{
		{Name: "Evening", Percentage: decimal.NewFromInt(20), StartHour: "20:00", EndHour: "23:00"},
	}}
	price := billing.PriceEvent(ev, entity.NatureHourly, hourlyVersion(20, plan), false)
	assert.True(t, price.ExclTaxes.Equal(decimal.NewFromInt(40)))
	assert.Empty(t, price.Surcharges)
}

// Coefficient never drops below 1: a surcharged price is never lower than the
// base price, whatever combination of rules matches.
func TestPriceEvent_CoefficientNonNegativity(t *testing.T) {
	plan := &entity.SurchargePlan{Rules: []entity.SurchargeRule{
		{Name: "Saturday", Percentage: decimal.NewFromInt(10), DayType: entity.DaySaturday},
		{Name: "Sunday", Percentage: decimal.NewFromInt(25), DayType: entity.DaySunday},
		{Name: "Evening", Percentage: decimal.NewFromInt(20), StartHour: "20:00", EndHour: "23:00"},
	}}
	base := decimal.NewFromInt(2).Mul(decimal.NewFromInt(20)) // 2h × 20

	for d := 1; d <= 14; d++ {
		ev := eventAt(
			time.Date(2021, 9, d, 21, 0, 0, 0, time.UTC),
			time.Date(2021, 9, d, 23, 0, 0, 0, time.UTC),
		)
		price := billing.PriceEvent(ev, entity.NatureHourly, hourlyVersion(20, plan), false)
		assert.True(t, price.ExclTaxes.GreaterThanOrEqual(base),
			"day %d: surcharged price %s below base %s", d, price.ExclTaxes, base)
	}
}
