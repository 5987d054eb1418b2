// Package influx mirrors meter readings into an InfluxDB bucket so they can be
// charted next to other time series.
package influx

import (
	"context"
	"errors"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	energy "ecotrack/internal/energy/domain"
	"ecotrack/internal/energy/stats"
)

// Measurement is the measurement name of exported readings.
const Measurement = "energy_reading"

// PointWriter is the blocking write API subset the exporter needs.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Exporter writes readings as points.
type Exporter struct {
	writer PointWriter
	logger zerolog.Logger
}

// NewExporter wraps a point writer.
func NewExporter(writer PointWriter, logger zerolog.Logger) (*Exporter, error) {
	if writer == nil {
		return nil, errors.New("influx: nil writer")
	}
	return &Exporter{writer: writer, logger: logger}, nil
}

// Connection holds an open client and the exporter bound to its bucket.
type Connection struct {
	client   influxdb2.Client
	Exporter *Exporter
}

// Connect opens a client, checks its health and binds an exporter to org and bucket.
func Connect(ctx context.Context, url, token, org, bucket string, logger zerolog.Logger) (*Connection, error) {
	client := influxdb2.NewClient(url, token)
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influx: health check: %w", err)
	}
	if health.Status != "pass" {
		client.Close()
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return nil, fmt.Errorf("influx: unhealthy: %s", msg)
	}
	exporter, err := NewExporter(client.WriteAPIBlocking(org, bucket), logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &Connection{client: client, Exporter: exporter}, nil
}

// Close releases the client.
func (c *Connection) Close() {
	c.client.Close()
}

// Points converts readings of meter into points stamped at the first instant
// of their month. Readings with unusable dates are skipped.
func Points(meter energy.Meter, readings []energy.Reading) []*write.Point {
	points := make([]*write.Point, 0, len(readings))
	for _, r := range readings {
		at, err := energy.ParseMonth(r.Date)
		if err != nil {
			continue
		}
		d := stats.DeriveReading(r)
		points = append(points, influxdb2.NewPoint(
			Measurement,
			map[string]string{"meter_id": meter.ID, "meter": meter.Name},
			map[string]interface{}{
				"grid_kwh":         r.Kwh,
				"solar_kwh":        r.Solar(),
				"cost":             r.Cost,
				"real_kwh":         d.RealConsumption,
				"savings_percent":  d.SavingsPercent,
				"price_per_kwh":    d.PricePerKwh,
				"theoretical_cost": d.TheoreticalCost,
			},
			at,
		))
	}
	return points
}

// Push writes every reading of meter and returns the number of points written.
func (e *Exporter) Push(ctx context.Context, meter energy.Meter, readings []energy.Reading) (int, error) {
	points := Points(meter, readings)
	if len(points) == 0 {
		return 0, nil
	}
	if err := e.writer.WritePoint(ctx, points...); err != nil {
		return 0, fmt.Errorf("influx: write %d points: %w", len(points), err)
	}
	e.logger.Info().Str("meter_id", meter.ID).Int("points", len(points)).Msg("readings pushed to influx")
	return len(points), nil
}
