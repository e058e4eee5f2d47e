package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteWeatherReading records a measurement pushed by a weather module.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - moduleID: The reporting module (e.g., "mod-a1b2c3d4")
//   - value: The numeric reading
//   - unit: The reading's unit (e.g., "C", "hPa", "%")
//
// Example:
//
//	client.WriteWeatherReading("mod-a1b2c3d4", 21.5, "C")
func (c *Client) WriteWeatherReading(moduleID string, value float64, unit string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"weather",
		map[string]string{
			"module_id": moduleID,
			"unit":      unit,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteModuleStatus records a module connectivity transition.
//
// Used for uptime reporting: online=1, offline=0 makes gaps and flaps
// easy to graph.
func (c *Client) WriteModuleStatus(moduleID, typeName string, online bool) {
	if !c.IsConnected() {
		return
	}

	value := 0
	if online {
		value = 1
	}

	point := write.NewPoint(
		"module_status",
		map[string]string{
			"module_id": moduleID,
			"type":      typeName,
		},
		map[string]interface{}{
			"online": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteGuirlandeColour records a displayed guirlande colour.
//
// Direct colour commands are recorded; per-tick preset animation frames
// are not, they would flood the bucket at 20ms resolution.
func (c *Client) WriteGuirlandeColour(red, green, blue int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"guirlande_colour",
		nil,
		map[string]interface{}{
			"red":   red,
			"green": green,
			"blue":  blue,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
