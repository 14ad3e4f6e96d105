package pipeline

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const scopeName = "github.com/dgallion1/lexchunk/internal/pipeline"

// Metrics holds the instruments recorded per processed document.
type Metrics struct {
	tracer trace.Tracer

	documents  metric.Int64Counter
	chunks     metric.Int64Counter
	violations metric.Int64Counter
	tokens     metric.Int64Histogram
}

// NewMetrics creates the pipeline instruments from the given providers.
func NewMetrics(mp metric.MeterProvider, tp trace.TracerProvider) (*Metrics, error) {
	meter := mp.Meter(scopeName)

	documents, err := meter.Int64Counter("lexchunk.documents",
		metric.WithDescription("Documents processed, by outcome"),
		metric.WithUnit("{document}"))
	if err != nil {
		return nil, err
	}

	chunks, err := meter.Int64Counter("lexchunk.chunks",
		metric.WithDescription("Chunks appended to the store"),
		metric.WithUnit("{chunk}"))
	if err != nil {
		return nil, err
	}

	violations, err := meter.Int64Counter("lexchunk.coverage.violations",
		metric.WithDescription("Documents rejected for losing structural lines"),
		metric.WithUnit("{document}"))
	if err != nil {
		return nil, err
	}

	tokens, err := meter.Int64Histogram("lexchunk.chunk.tokens",
		metric.WithDescription("Token count of stored chunks"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		tracer:     tp.Tracer(scopeName),
		documents:  documents,
		chunks:     chunks,
		violations: violations,
		tokens:     tokens,
	}, nil
}

func nopMetrics() *Metrics {
	m, _ := NewMetrics(metricnoop.NewMeterProvider(), tracenoop.NewTracerProvider())
	return m
}

func (m *Metrics) record(ctx context.Context, o Outcome) {
	m.documents.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(o.Status))))
	if o.Kind == KindIntegrity {
		m.violations.Add(ctx, 1)
	}
	if o.Status != OutcomeStored {
		return
	}
	m.chunks.Add(ctx, int64(o.Chunks))
	for _, t := range o.Tokens {
		m.tokens.Record(ctx, int64(t))
	}
}
