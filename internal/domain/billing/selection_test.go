package billing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CompaniTech/compani-api-sub000/internal/domain"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/billing"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

func TestSelectRateVersion(t *testing.T) {
	service := &entity.Service{
		Nature: entity.NatureHourly,
		Versions: []entity.ServiceRateVersion{
			{StartDate: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), UnitExclTaxRate: decimal.NewFromInt(18)},
			{StartDate: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), UnitExclTaxRate: decimal.NewFromInt(20)},
			{StartDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), UnitExclTaxRate: decimal.NewFromInt(22)},
		},
	}

	v, err := billing.SelectRateVersion(time.Date(2021, 9, 15, 0, 0, 0, 0, time.UTC), service)
	require.NoError(t, err)
	assert.True(t, v.UnitExclTaxRate.Equal(decimal.NewFromInt(20)), "latest version effective before the date wins")

	v, err = billing.SelectRateVersion(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), service)
	require.NoError(t, err)
	assert.True(t, v.UnitExclTaxRate.Equal(decimal.NewFromInt(20)), "version starting on the date applies")
}

func TestSelectRateVersion_NoneEffective(t *testing.T) {
	service := &entity.Service{
		Versions: []entity.ServiceRateVersion{
			{StartDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	_, err := billing.SelectRateVersion(time.Date(2021, 9, 15, 0, 0, 0, 0, time.UTC), service)
	assert.ErrorIs(t, err, domain.ErrMissingRateVersion)
}

func weekdayFunding(id string, careDays []int) entity.Funding {
	return entity.Funding{
		ID:        id,
		Nature:    entity.NatureHourly,
		Frequency: entity.FrequencyOnce,
		CareDays:  careDays,
		Versions: []entity.FundingVersion{{
			StartDate: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
	}
}

func TestSelectFunding_CareDayMatch(t *testing.T) {
	fundings := []entity.Funding{
		weekdayFunding("weekdays", []int{0, 1, 2, 3, 4}),
		weekdayFunding("weekend", []int{5, 6}),
	}

	// 2021-09-07 is a Tuesday (care day 1).
	f, v := billing.SelectFunding(time.Date(2021, 9, 7, 10, 0, 0, 0, time.UTC), fundings, false)
	require.NotNil(t, f)
	require.NotNil(t, v)
	assert.Equal(t, "weekdays", f.ID)

	// 2021-09-05 is a Sunday (care day 6).
	f, _ = billing.SelectFunding(time.Date(2021, 9, 5, 10, 0, 0, 0, time.UTC), fundings, false)
	require.NotNil(t, f)
	assert.Equal(t, "weekend", f.ID)
}

// Scenario: no funding eligible on the event's weekday -> nil, the customer
// bears the full price.
func TestSelectFunding_NoEligibleCareDay(t *testing.T) {
	fundings := []entity.Funding{weekdayFunding("weekdays", []int{0, 1, 2, 3, 4})}

	f, v := billing.SelectFunding(time.Date(2021, 9, 5, 10, 0, 0, 0, time.UTC), fundings, false)
	assert.Nil(t, f)
	assert.Nil(t, v)
}

func TestSelectFunding_HolidayUsesDaySeven(t *testing.T) {
	holidayOnly := weekdayFunding("holiday", []int{entity.CareDayHoliday})
	fundings := []entity.Funding{holidayOnly}

	// July 14th 2021 is a Wednesday but flagged as a holiday.
	f, _ := billing.SelectFunding(time.Date(2021, 7, 14, 10, 0, 0, 0, time.UTC), fundings, true)
	require.NotNil(t, f)
	assert.Equal(t, "holiday", f.ID)

	f, _ = billing.SelectFunding(time.Date(2021, 7, 14, 10, 0, 0, 0, time.UTC), fundings, false)
	assert.Nil(t, f, "without the holiday flag the weekday does not match")
}

func TestSelectFunding_ExpiredWindowIgnored(t *testing.T) {
	expired := weekdayFunding("expired", []int{0, 1, 2, 3, 4, 5, 6})
	expired.Versions[0].EndDate = time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC)

	f, _ := billing.SelectFunding(time.Date(2021, 9, 7, 10, 0, 0, 0, time.UTC), []entity.Funding{expired}, false)
	assert.Nil(t, f)
}

func TestFundingValidate(t *testing.T) {
	f := weekdayFunding("f", []int{0, 1})
	assert.NoError(t, f.Validate())

	f.Nature = entity.NatureFixed
	f.Frequency = entity.FrequencyMonthly
	assert.ErrorIs(t, f.Validate(), domain.ErrInvalidFundingFrequency)

	f.Frequency = entity.FrequencyOnce
	f.CareDays = []int{9}
	assert.ErrorIs(t, f.Validate(), domain.ErrInvalidInput)
}
