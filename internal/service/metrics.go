package service

import (
	"context"

	"github.com/prperemyshlev/social-service/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/prperemyshlev/social-service/internal/service"

// flowMetrics counts auth flow outcomes as auth_flow_total{flow,outcome}.
// outcome is "success" or the error kind, e.g. "unauthorized".
type flowMetrics struct {
	flows metric.Int64Counter
}

func newFlowMetrics(meter metric.Meter) (*flowMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(meterName)
	}

	flows, err := meter.Int64Counter("auth_flow",
		metric.WithDescription("Auth flow invocations by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &flowMetrics{flows: flows}, nil
}

func (m *flowMetrics) record(ctx context.Context, flow string, err error) {
	outcome := "success"
	if err != nil {
		outcome = domain.KindOf(err).String()
	}
	m.flows.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("outcome", outcome),
	))
}
