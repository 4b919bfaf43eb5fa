package util

import (
	"fmt"
	"math"
	"time"
)

const (
	// LayoutUTC is the wire format used when sending timestamps upstream.
	LayoutUTC = "2006-01-02T15:04:05Z"
	// LayoutUTCMillis is the format Directus uses for timestamp columns.
	LayoutUTCMillis = "2006-01-02T15:04:05.000Z"
	// LayoutLocal is the display format for local date-times.
	LayoutLocal = "2006-01-02 15:04:05"
	// LayoutShortDate renders dates like "Jan 02 2024".
	LayoutShortDate = "Jan 02 2006"

	// GoodTillCanceled is shown instead of a countdown for GTC quotes.
	GoodTillCanceled = "Good Till Canceled"
	// Expired is shown once a countdown is negative or cannot be computed.
	Expired = "Expired"
	// NotAvailable is shown for missing dates.
	NotAvailable = "N/A"
)

// timestampLayouts are tried in order; Go accepts a fractional second after
// the seconds field even when the layout omits it.
var timestampLayouts = []string{
	LayoutUTCMillis,
	time.RFC3339,
	"2006-01-02T15:04:05",
	LayoutLocal,
	"2006-01-02T15:04",
}

// localLayouts are the zone-less forms accepted from user input.
var localLayouts = timestampLayouts[2:]

// ParseTimestamp parses the timestamp shapes returned by Directus. Values
// without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatUTC formats t as a second-precision UTC timestamp.
func FormatUTC(t time.Time) string {
	return t.UTC().Format(LayoutUTC)
}

// FormatUTCMillis formats t the way Directus filters expect.
func FormatUTCMillis(t time.Time) string {
	return t.UTC().Format(LayoutUTCMillis)
}

// ToLocal converts a UTC timestamp string into loc, formatted for display.
// Unparsable input yields "".
func ToLocal(ts string, loc *time.Location) string {
	t, ok := ParseTimestamp(ts)
	if !ok {
		return ""
	}
	return t.In(location(loc)).Format(LayoutLocal)
}

// ToLocalOr works like ToLocal but returns fallback for unparsable input.
func ToLocalOr(ts string, loc *time.Location, fallback string) string {
	if v := ToLocal(ts, loc); v != "" {
		return v
	}
	return fallback
}

// LocalToUTC reads a local date-time entered by a user and returns it as a UTC
// wire timestamp. Unparsable input yields "".
func LocalToUTC(input string, loc *time.Location) string {
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, input, location(loc)); err == nil {
			return FormatUTC(t)
		}
	}
	return ""
}

// ShortDate renders a Directus timestamp as "Jan 02 2006". Unparsable input
// is returned unchanged.
func ShortDate(ts string) string {
	t, ok := ParseTimestamp(ts)
	if !ok {
		return ts
	}
	return t.Format(LayoutShortDate)
}

// Countdown returns the HH:MM:SS remaining between created (or now when
// created is empty) and expiry.
func Countdown(created, expiry string, gtc bool, now time.Time) string {
	if gtc {
		return GoodTillCanceled
	}
	start := now
	if created != "" {
		t, ok := ParseTimestamp(created)
		if !ok {
			return Expired
		}
		start = t
	}
	end, ok := ParseTimestamp(expiry)
	if !ok {
		return Expired
	}
	d := end.Sub(start)
	if d < 0 {
		return Expired
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// TimeToExpiry returns the days remaining until expiry, rounded to two
// decimals. Unparsable expiries count as already expired.
func TimeToExpiry(expiry string, now time.Time) float64 {
	end, ok := ParseTimestamp(expiry)
	if !ok {
		return 0
	}
	days := float64(int64(end.Sub(now)/time.Second)) / 86400.0
	return math.Round(days*100) / 100
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
