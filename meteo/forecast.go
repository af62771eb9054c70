package meteo

import "time"

// kmhToMS converts a wind speed from km/h to m/s.
const kmhToMS = 3.6

// Window selects samples whose timestamp lies within [now, now+horizonHours]
// inclusive, in timestamp order, collecting at most horizonHours entries.
// Fewer matching samples than the horizon is valid and simply yields a
// shorter result.
func Window(samples []HourlySample, now time.Time, horizonHours int) []HourlySample {
	if horizonHours <= 0 {
		return nil
	}

	end := now.Add(time.Duration(horizonHours) * time.Hour)
	windowed := make([]HourlySample, 0, horizonHours)
	for _, s := range samples {
		if s.Time.Before(now) || s.Time.After(end) {
			continue
		}
		windowed = append(windowed, s)
		if len(windowed) >= horizonHours {
			break
		}
	}
	return windowed
}

// RollupDaily folds windowed hourly samples into one summary per local
// calendar day. Samples are grouped while contiguous and sharing a date;
// a group closes exactly when the date component changes, and the last
// group is always flushed. Empty input yields an empty result.
func RollupDaily(samples []HourlySample) []DailySummary {
	groups := groupByDay(samples)
	summaries := make([]DailySummary, 0, len(groups))
	for _, group := range groups {
		summaries = append(summaries, reduceDay(group))
	}
	return summaries
}

// groupByDay splits samples into contiguous runs sharing a calendar date.
func groupByDay(samples []HourlySample) [][]HourlySample {
	var groups [][]HourlySample
	start := 0
	for i := 1; i <= len(samples); i++ {
		if i == len(samples) || !sameDate(samples[i].Time, samples[start].Time) {
			groups = append(groups, samples[start:i])
			start = i
		}
	}
	return groups
}

// reduceDay folds one day's samples into a summary. Wind peak is
// converted from km/h to m/s here, not on the raw samples.
func reduceDay(group []HourlySample) DailySummary {
	first := group[0]
	summary := DailySummary{
		Date:     midnight(first.Time),
		TempMinC: first.TemperatureC,
		TempMaxC: first.TemperatureC,
	}

	peakKmh := 0.0
	for _, s := range group {
		if s.TemperatureC < summary.TempMinC {
			summary.TempMinC = s.TemperatureC
		}
		if s.TemperatureC > summary.TempMaxC {
			summary.TempMaxC = s.TemperatureC
		}
		if s.WindSpeedKmh > peakKmh {
			peakKmh = s.WindSpeedKmh
		}
		summary.PrecipitationMM += s.PrecipitationMM
	}
	summary.WindPeakMS = peakKmh / kmhToMS

	return summary
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
