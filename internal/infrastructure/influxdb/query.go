package influxdb

import (
	"context"
	"fmt"
	"time"
)

// WeatherReading is one historical weather measurement.
type WeatherReading struct {
	Time   time.Time `json:"time"`
	Value  float64   `json:"value"`
	Unit   string    `json:"unit"`
	Module string    `json:"module_id"`
}

// WeatherHistory returns the weather readings recorded for a module over
// the given window, oldest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - moduleID: The module whose readings to fetch
//   - window: How far back to look (e.g., 24*time.Hour)
//
// Returns:
//   - []WeatherReading: Readings in chronological order (may be empty)
//   - error: nil on success, otherwise the query error
func (c *Client) WeatherHistory(ctx context.Context, moduleID string, window time.Duration) ([]WeatherReading, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive", ErrQueryFailed)
	}

	flux := fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%s)
  |> filter(fn: (r) => r._measurement == "weather")
  |> filter(fn: (r) => r.module_id == %q)
  |> filter(fn: (r) => r._field == "value")
  |> sort(columns: ["_time"])`,
		c.cfg.Bucket, window.String(), moduleID)

	result, err := c.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer result.Close()

	var readings []WeatherReading
	for result.Next() {
		record := result.Record()

		value, ok := record.Value().(float64)
		if !ok {
			continue
		}

		unit, _ := record.ValueByKey("unit").(string)
		readings = append(readings, WeatherReading{
			Time:   record.Time(),
			Value:  value,
			Unit:   unit,
			Module: moduleID,
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return readings, nil
}
