package loop

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tomz197/hopline/internal/loop"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// sessionMetrics are the session's OTel counters. The global meter is a
// no-op unless a provider is installed.
type sessionMetrics struct {
	spawned  metric.Int64Counter
	damage   metric.Int64Counter
	scored   metric.Int64Counter
	rejected metric.Int64Counter
}

func newSessionMetrics() (*sessionMetrics, error) {
	m := meter()
	sm := &sessionMetrics{}

	var err error
	sm.spawned, err = m.Int64Counter(
		"hopline.obstacles.spawned",
		metric.WithDescription("Obstacles spawned"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating spawned counter: %w", err)
	}

	sm.damage, err = m.Int64Counter(
		"hopline.damage.events",
		metric.WithDescription("Damage events applied to the player"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating damage counter: %w", err)
	}

	sm.scored, err = m.Int64Counter(
		"hopline.score.awarded",
		metric.WithDescription("Obstacles passed cleanly"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating score counter: %w", err)
	}

	sm.rejected, err = m.Int64Counter(
		"hopline.samples.rejected",
		metric.WithDescription("Keypoint samples rejected for low quality"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}

	return sm, nil
}

func (m *sessionMetrics) damageEvent(fatal bool) {
	m.damage.Add(context.Background(), 1, metric.WithAttributes(attribute.Bool("fatal", fatal)))
}
