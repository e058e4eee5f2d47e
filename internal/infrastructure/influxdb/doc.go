// Package influxdb provides optional time-series telemetry for Maison Core.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched metric writing, and weather history queries.
//
// # Purpose
//
// This package records:
//   - weather readings pushed by weather modules
//   - module online/offline transitions
//   - guirlande colour changes
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "maison",
//	    Bucket: "telemetry",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteWeatherReading("mod-a1b2c3d4", 21.5, "C")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors surface via the
// SetOnError callback. Connection, health check and query errors are
// returned directly.
package influxdb
