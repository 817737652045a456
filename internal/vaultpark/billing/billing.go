// Package billing computes parking duration and the amount owed for it.
// All functions are pure; the time zone used for day boundaries is passed in.
package billing

import "time"

// Breakdown is an elapsed duration split into whole units (floor).
type Breakdown struct {
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// Elapsed returns exit - entry, never negative.
func Elapsed(entry, exitOrNow time.Time) time.Duration {
	d := exitOrNow.Sub(entry)
	if d < 0 {
		return 0
	}
	return d
}

// Split breaks d into whole hours, minutes and seconds, dropping the
// sub-second remainder.
func Split(d time.Duration) Breakdown {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return Breakdown{
		Hours:   total / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

// BilledAmount pro-rates hourlyRate over d. Partial hours are not rounded up.
func BilledAmount(d time.Duration, hourlyRate float64) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d.Milliseconds()) / float64(time.Hour.Milliseconds()) * hourlyRate
}

// Tariff is one pricing tier. A nil DailyCap means the hourly amount is
// never capped.
type Tariff struct {
	Name       string
	HourlyRate float64
	DailyCap   *float64
}

// Amount prices the stay from entry to exit. With a daily cap the stay is cut
// at local midnight in loc and every calendar day is capped on its own.
func (t Tariff) Amount(entry, exit time.Time, loc *time.Location) float64 {
	if t.DailyCap == nil {
		return BilledAmount(Elapsed(entry, exit), t.HourlyRate)
	}
	if loc == nil {
		loc = time.UTC
	}

	limit := *t.DailyCap
	cur := entry.In(loc)
	end := exit.In(loc)

	var total float64
	for cur.Before(end) {
		y, m, d := cur.Date()
		segEnd := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
		if segEnd.After(end) {
			segEnd = end
		}
		amt := BilledAmount(segEnd.Sub(cur), t.HourlyRate)
		if amt > limit {
			amt = limit
		}
		total += amt
		cur = segEnd
	}
	return total
}
