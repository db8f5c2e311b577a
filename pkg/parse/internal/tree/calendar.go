package tree

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/stay"
)

var calendarPaths = []string{
	"props.pageProps.calendarData",
	"props.pageProps.listing.calendarData",
	"data.merlin.pdpAvailabilityCalendar",
}

// Calendar locates calendar data under root and builds a PriceCalendar.
// today (YYYY-MM-DD) drives the past-date unavailability reason. The
// derived statistics are left for the caller to compute.
func Calendar(root gjson.Result, listingID, today string) (*stay.PriceCalendar, bool) {
	container, ok := findCalendar(root)
	if !ok {
		return nil, false
	}

	var days []stay.CalendarDay
	collect := func(arr []gjson.Result) {
		for _, d := range arr {
			if day, ok := calendarDay(d, today); ok {
				days = append(days, day)
			}
		}
	}

	if months, ok := First(container, "calendarMonths", "calendar_months"); ok && months.IsArray() {
		for _, m := range months.Array() {
			collect(Array(m, "days"))
		}
	}
	if len(days) == 0 && container.IsArray() {
		collect(container.Array())
	}
	if len(days) == 0 {
		collect(Array(container, "days"))
	}
	if len(days) == 0 {
		return nil, false
	}

	return &stay.PriceCalendar{
		ListingID: listingID,
		Currency:  StrOr(container, DefaultCurrency, "currency", "priceCurrency"),
		Days:      days,
	}, true
}

func findCalendar(root gjson.Result) (gjson.Result, bool) {
	if root.Get("calendarMonths").Exists() || root.Get("calendar_months").Exists() {
		return root, true
	}
	if v, ok := First(root, calendarPaths...); ok {
		return v, true
	}
	return Find(root, MaxDepth, func(v gjson.Result) bool {
		if v.IsObject() {
			if v.Get("calendarMonths").Exists() || v.Get("calendar_months").Exists() {
				return true
			}
			return hasDayItems(v.Get("days"))
		}
		return hasDayItems(v)
	})
}

func hasDayItems(arr gjson.Result) bool {
	if !arr.IsArray() {
		return false
	}
	found := false
	arr.ForEach(func(_, item gjson.Result) bool {
		found = item.IsObject() && (item.Get("date").Exists() || item.Get("calendarDate").Exists())
		return !found
	})
	return found
}

func calendarDay(d gjson.Result, today string) (stay.CalendarDay, bool) {
	date, ok := Str(d, "date", "calendarDate")
	if !ok {
		return stay.CalendarDay{}, false
	}
	available := false
	if b := Bool(d, "available", "isAvailable"); b != nil {
		available = *b
	}

	day := stay.CalendarDay{
		Date:              date,
		Price:             dayPrice(d),
		Available:         available,
		MinNights:         CountPtr(d, "minNights", "minimumNights", "min_nights"),
		MaxNights:         CountPtr(d, "maxNights", "maximumNights", "max_nights"),
		ClosedToArrival:   Bool(d, "closedToArrival"),
		ClosedToDeparture: Bool(d, "closedToDeparture"),
	}
	if !available {
		reason := unavailability(d, date, today)
		day.UnavailabilityReason = &reason
	}
	return day, true
}

func dayPrice(d gjson.Result) *float64 {
	p := d.Get("price")
	switch p.Type {
	case gjson.Number:
		if f, ok := Float(d, "price"); ok {
			return &f
		}
	case gjson.String:
		if f, ok := ParsePrice(p.Str); ok {
			return &f
		}
	case gjson.JSON:
		if f, ok := Float(p, "amount", "local_price", "native_price"); ok {
			return &f
		}
	}
	for _, key := range []string{"localPriceFormatted", "price_string"} {
		if s, ok := Str(d, key); ok {
			if f, ok := ParsePrice(s); ok {
				return &f
			}
		}
	}
	return nil
}

func unavailability(d gjson.Result, date, today string) stay.UnavailabilityReason {
	if _, err := time.Parse(stay.DateLayout, date); err == nil && today != "" && date < today {
		return stay.ReasonPastDate
	}
	if status, ok := Str(d, "bookingStatusType", "booking_status_type", "bookingStatus"); ok {
		s := strings.ToLower(status)
		if strings.Contains(s, "booked") || strings.Contains(s, "reservation") {
			return stay.ReasonBooked
		}
	}
	if b := Bool(d, "autoAvailability", "auto_availability"); b != nil && !*b {
		return stay.ReasonBlockedByHost
	}
	if b := Bool(d, "hostBlocked", "host_blocked", "blocked"); b != nil && *b {
		return stay.ReasonBlockedByHost
	}
	arrival, departure := Bool(d, "closedToArrival"), Bool(d, "closedToDeparture")
	if arrival != nil && *arrival && departure != nil && *departure {
		return stay.ReasonMinNightRestriction
	}
	return stay.ReasonUnknown
}
