package coordinator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/framereview/annotations/internal/coordinator"

func (c *Coordinator) initMetrics() error {
	m := otel.Meter(instrumentationName)

	var err error
	c.commits, err = m.Int64Counter(
		"coordinator.commits",
		metric.WithDescription("Live edits committed to a bookmark annotation"),
	)
	if err != nil {
		return fmt.Errorf("creating commits counter: %w", err)
	}

	c.undos, err = m.Int64Counter(
		"coordinator.undo",
		metric.WithDescription("Undo requests by outcome"),
	)
	if err != nil {
		return fmt.Errorf("creating undo counter: %w", err)
	}

	c.redos, err = m.Int64Counter(
		"coordinator.redo",
		metric.WithDescription("Redo requests by outcome"),
	)
	if err != nil {
		return fmt.Errorf("creating redo counter: %w", err)
	}

	c.evictions, err = m.Int64Counter(
		"coordinator.live_edits.evicted",
		metric.WithDescription("Live edits discarded because their frame left the screen"),
	)
	if err != nil {
		return fmt.Errorf("creating evictions counter: %w", err)
	}
	return nil
}

func outcome(ok bool) metric.AddOption {
	if ok {
		return metric.WithAttributes(attribute.String("result", "ok"))
	}
	return metric.WithAttributes(attribute.String("result", "failed"))
}

func (c *Coordinator) countCommit() {
	c.commits.Add(context.Background(), 1)
}
