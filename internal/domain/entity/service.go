package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Nature of a service or funding: billed by the hour or at a fixed price.
type Nature string

const (
	NatureHourly Nature = "hourly"
	NatureFixed  Nature = "fixed"
)

// Valid reports whether the nature is one of the closed set.
func (n Nature) Valid() bool {
	return n == NatureHourly || n == NatureFixed
}

// Service is a care service sold through subscriptions. Rates are versioned;
// the version effective at an event date is the latest one whose StartDate is
// not after that date.
type Service struct {
	ID        string
	CompanyID string
	Name      string
	Nature    Nature
	Versions  []ServiceRateVersion
}

// ServiceRateVersion is a time-scoped rate record.
type ServiceRateVersion struct {
	StartDate       time.Time
	UnitExclTaxRate decimal.Decimal
	VAT             decimal.Decimal // percentage, e.g. 20 for 20%
	SurchargePlan   *SurchargePlan  // nil when the version carries no surcharges
}

// SurchargePlan is a named set of surcharge rules.
type SurchargePlan struct {
	ID    string
	Name  string
	Rules []SurchargeRule
}

// DayType identifies a whole-event surcharge trigger.
type DayType string

const (
	DaySaturday      DayType = "saturday"
	DaySunday        DayType = "sunday"
	DayPublicHoliday DayType = "public_holiday"
)

// SurchargeRule is either a day-type rule (DayType set, applied to the whole
// event) or a time-window rule (StartHour/EndHour set, applied proportionally
// to the overlap with the event). Percentage is expressed as e.g. 25 for +25%.
type SurchargeRule struct {
	Name       string
	Percentage decimal.Decimal
	DayType    DayType // empty for time-window rules
	StartHour  string  // "15:04", time-window rules only
	EndHour    string  // "15:04", time-window rules only
}

// IsWindow reports whether the rule is a time-window rule.
func (r SurchargeRule) IsWindow() bool {
	return r.DayType == "" && r.StartHour != "" && r.EndHour != ""
}
