package depot

import (
	"strings"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/us"
)

// Calendar tells trading days apart: Monday to Friday, except public holidays.
type Calendar struct {
	country string
	bc      *cal.BusinessCalendar
}

// NewCalendar returns the trading calendar of a country: "de", "us", or "none"
// (or "") for weekends only.
func NewCalendar(country string) (*Calendar, error) {
	country = strings.ToLower(strings.TrimSpace(country))
	bc := cal.NewBusinessCalendar()
	switch country {
	case "de":
		bc.AddHoliday(de.Holidays...)
	case "us":
		bc.AddHoliday(us.Holidays...)
	case "", "none":
		country = "none"
	default:
		return nil, Validationf("unknown holiday calendar %q", country)
	}
	return &Calendar{country: country, bc: bc}, nil
}

// Country returns the holiday set in use.
func (c *Calendar) Country() string { return c.country }

// IsTradingDay reports whether d is a weekday that is not a public holiday.
func (c *Calendar) IsTradingDay(d Date) bool { return c.bc.IsWorkday(d.time()) }

// TradingDays returns the trading days of r.
func (c *Calendar) TradingDays(r Range) []Date {
	var days []Date
	for d := range r.Days() {
		if c.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// LastTradingDay returns the latest trading day strictly before today, looking
// back at most 5 days. Yesterday is returned when none qualifies.
func (c *Calendar) LastTradingDay(today Date) Date {
	for i := 1; i <= 5; i++ {
		if d := today.Add(-i); c.IsTradingDay(d) {
			return d
		}
	}
	return today.Add(-1)
}

// LastTradingDayOfPreviousMonth returns the last trading day of the month
// before today, looking back at most 10 days from its last calendar day.
func (c *Calendar) LastTradingDayOfPreviousMonth(today Date) (Date, bool) {
	end := today.EndOfPreviousMonth()
	for i := 0; i <= 10; i++ {
		if d := end.Add(-i); c.IsTradingDay(d) {
			return d, true
		}
	}
	return Date{}, false
}
