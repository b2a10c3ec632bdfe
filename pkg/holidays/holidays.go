// Package holidays computes French public holidays, used by the billing
// engine for care-day eligibility (day index 7) and public-holiday surcharges.
package holidays

import "time"

// IsPublicHoliday reports whether the given date is a French public holiday.
// Only the calendar day matters; the time of day and location are ignored.
func IsPublicHoliday(date time.Time) bool {
	y, m, d := date.Date()

	switch {
	case m == time.January && d == 1: // Jour de l'an
		return true
	case m == time.May && d == 1: // Fête du travail
		return true
	case m == time.May && d == 8: // Victoire 1945
		return true
	case m == time.July && d == 14: // Fête nationale
		return true
	case m == time.August && d == 15: // Assomption
		return true
	case m == time.November && d == 1: // Toussaint
		return true
	case m == time.November && d == 11: // Armistice 1918
		return true
	case m == time.December && d == 25: // Noël
		return true
	}

	easter := easterSunday(y)
	switch {
	case sameDay(date, easter.AddDate(0, 0, 1)): // Lundi de Pâques
		return true
	case sameDay(date, easter.AddDate(0, 0, 39)): // Ascension
		return true
	case sameDay(date, easter.AddDate(0, 0, 50)): // Lundi de Pentecôte
		return true
	}
	return false
}

// easterSunday returns Easter Sunday for a year (Meeus/Jones/Butcher,
// Gregorian calendar).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
