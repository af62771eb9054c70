// Package meteo provides a client for the Open-Meteo forecast API and the
// aggregation helpers that turn its hourly series into windowed hourly
// samples or per-day summaries.
//
// The client fetches parallel per-hour arrays (time, temperature,
// precipitation, wind speed, wind direction, weather code), validates that
// they are consistent, and normalizes them into ordered HourlySample
// values tagged with the configured time zone.
//
// Basic usage:
//
//	client, err := meteo.NewClient("Europe/Moscow")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	samples, err := client.FetchHourly(ctx, meteo.Position{
//		Latitude:  55.44,
//		Longitude: 55.58,
//	}, 72)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	windowed := meteo.Window(samples, time.Now(), 72)
//	days := meteo.RollupDaily(windowed)
package meteo
