// Package message renders forecast results into transport-ready display
// lines and splits oversized payloads into byte-bounded chunks.
package message

import (
	"fmt"

	"github.com/sixdouglas/suncalc"

	"github.com/meshwx-org/meshwx/meteo"
)

// FormatHourly renders one display line per hourly sample: time,
// temperature, precipitation, wind speed in m/s and the decoded condition.
func FormatHourly(samples []meteo.HourlySample) []string {
	lines := make([]string, 0, len(samples))
	for _, s := range samples {
		line := fmt.Sprintf("🕒 %s 🌡 %.1f°C 🌧 %.1fmm 💨 %.1fm/s",
			s.Time.Format("02.01.2006 15:04"),
			s.TemperatureC,
			s.PrecipitationMM,
			s.WindSpeedKmh/3.6,
		)
		if s.WeatherCode != nil {
			line += " " + meteo.Describe(*s.WeatherCode)
		}
		lines = append(lines, line)
	}
	return lines
}

// FormatDaily renders one display line per daily summary: date,
// temperature range, precipitation total to two decimals, peak wind to
// one decimal in m/s, and sunrise/sunset at the forecast position.
func FormatDaily(summaries []meteo.DailySummary, pos meteo.Position) []string {
	lines := make([]string, 0, len(summaries))
	for _, d := range summaries {
		line := fmt.Sprintf("📆 %s 🌡 %.1f..%.1f°C 🌧 %.2fmm 💨 %.1fm/s",
			d.Date.Format("02.01.2006"),
			d.TempMinC,
			d.TempMaxC,
			d.PrecipitationMM,
			d.WindPeakMS,
		)

		times := suncalc.GetTimes(d.Date, pos.Latitude, pos.Longitude)
		sunrise := times["sunrise"].Value
		sunset := times["sunset"].Value
		if !sunrise.IsZero() && !sunset.IsZero() {
			line += fmt.Sprintf(" 🌅 %s 🌇 %s",
				sunrise.In(d.Date.Location()).Format("15:04"),
				sunset.In(d.Date.Location()).Format("15:04"))
		}

		lines = append(lines, line)
	}
	return lines
}
