// Package billing holds the pure domain services of the billing engine:
// event pricing, funding allocation and version/funding selection. No I/O,
// deterministic given inputs.
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	sixty   = decimal.NewFromInt(60)
)

// AppliedSurcharge is a surcharge rule that actually contributed to an event's
// price, kept for invoice display.
type AppliedSurcharge struct {
	Name       string
	Percentage decimal.Decimal
}

// EventPrice is the excl-tax price of one event plus the surcharges applied.
type EventPrice struct {
	ExclTaxes  decimal.Decimal
	Surcharges []AppliedSurcharge
}

// PriceEvent prices one care event given the service nature, the rate version
// effective at its date and whether the date is a public holiday.
//
// Hourly nature: durationHours × unitExclTaxRate × coefficient, where the
// coefficient starts at 1.0 and gains percentage/100 for each matching
// day-type rule and (overlap/duration) × percentage/100 for each time-window
// rule. Fixed nature: the unit rate regardless of duration, no surcharges.
func PriceEvent(event *entity.CareEvent, nature entity.Nature, version *entity.ServiceRateVersion, isHoliday bool) EventPrice {
	if nature == entity.NatureFixed {
		return EventPrice{ExclTaxes: version.UnitExclTaxRate}
	}

	minutes := event.DurationMinutes()
	hours := decimal.NewFromInt(minutes).Div(sixty)
	base := hours.Mul(version.UnitExclTaxRate)

	coefficient := one
	var applied []AppliedSurcharge
	if version.SurchargePlan != nil && minutes > 0 {
		for _, rule := range version.SurchargePlan.Rules {
			share := surchargeShare(event, rule, isHoliday)
			if share.IsZero() {
				continue
			}
			coefficient = coefficient.Add(share.Mul(rule.Percentage).Div(hundred))
			applied = append(applied, AppliedSurcharge{Name: rule.Name, Percentage: rule.Percentage})
		}
	}

	return EventPrice{ExclTaxes: base.Mul(coefficient), Surcharges: applied}
}

// surchargeShare returns the fraction of the event the rule applies to:
// 1 for a matching day-type rule, overlap/duration for a window rule,
// 0 when the rule does not match.
func surchargeShare(event *entity.CareEvent, rule entity.SurchargeRule, isHoliday bool) decimal.Decimal {
	if rule.DayType != "" {
		if dayTypeMatches(rule.DayType, event.StartDate, isHoliday) {
			return one
		}
		return decimal.Zero
	}
	if !rule.IsWindow() {
		return decimal.Zero
	}
	overlap := windowOverlapMinutes(event, rule.StartHour, rule.EndHour)
	if overlap <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(overlap).Div(decimal.NewFromInt(event.DurationMinutes()))
}

func dayTypeMatches(dt entity.DayType, date time.Time, isHoliday bool) bool {
	switch dt {
	case entity.DaySaturday:
		return date.Weekday() == time.Saturday
	case entity.DaySunday:
		return date.Weekday() == time.Sunday
	case entity.DayPublicHoliday:
		return isHoliday
	}
	return false
}

// windowOverlapMinutes computes the overlap in minutes between the event and
// a clock window anchored on the event's start date.
func windowOverlapMinutes(event *entity.CareEvent, startHour, endHour string) int64 {
	winStart, okS := clockOnDay(event.StartDate, startHour)
	winEnd, okE := clockOnDay(event.StartDate, endHour)
	if !okS || !okE || !winEnd.After(winStart) {
		return 0
	}
	start := event.StartDate
	if winStart.After(start) {
		start = winStart
	}
	end := event.EndDate
	if winEnd.Before(end) {
		end = winEnd
	}
	if !end.After(start) {
		return 0
	}
	return int64(end.Sub(start) / time.Minute)
}

func clockOnDay(day time.Time, clock string) (time.Time, bool) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), true
}
