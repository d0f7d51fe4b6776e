package marketdata

import (
	"sort"
	"time"

	"MarketLens/internal/domain/models"
	"MarketLens/pkg/util"
)

// DefaultMinPoints is the smallest merged series treated as usable.
const DefaultMinPoints = 10

// Merge combines successful results into one ascending series. Sources are visited in rank order
// (lower rank first, ties keep their input order) and the first source to supply a date owns it.
// Invalid candles and repeated dates inside one source are dropped; only dates in
// [from, to] are kept, where zero bounds are open.
func Merge(results []models.ProviderResult, from, to time.Time) models.Series {
	ordered := make([]models.ProviderResult, 0, len(results))
	for _, r := range results {
		if r.OK() && len(r.Series) > 0 {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Rank < ordered[j].Rank })

	byDate := make(map[time.Time]models.Candle)
	for _, r := range ordered {
		seen := make(map[time.Time]bool, len(r.Series))
		for _, c := range r.Series {
			day := util.Day(c.Date)
			if seen[day] || !c.Valid() {
				continue
			}
			seen[day] = true
			if !from.IsZero() && day.Before(from) {
				continue
			}
			if !to.IsZero() && day.After(to) {
				continue
			}
			if _, taken := byDate[day]; taken {
				continue
			}
			c.Date = day
			byDate[day] = c
		}
	}

	out := make(models.Series, 0, len(byDate))
	for _, c := range byDate {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Window returns the inclusive day range for a request of days ending at now.
func Window(now time.Time, days int) (from, to time.Time) {
	return util.Cutoff(now, days), util.Day(now)
}
