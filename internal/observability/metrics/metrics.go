package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	billingDenied     metric.Int64Counter
	planNameConflicts metric.Int64Counter
	periodLockDenied  metric.Int64Counter
	paymentsRecorded  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "clubcore"
	}
	meter := provider.Meter(name)

	billingDenied, err := meter.Int64Counter("clubcore_billing_denied_total")
	if err != nil {
		return nil, err
	}
	planNameConflicts, err := meter.Int64Counter("clubcore_plan_name_conflicts_total")
	if err != nil {
		return nil, err
	}
	periodLockDenied, err := meter.Int64Counter("clubcore_period_lock_denied_total")
	if err != nil {
		return nil, err
	}
	paymentsRecorded, err := meter.Int64Counter("clubcore_payments_recorded_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		billingDenied:     billingDenied,
		planNameConflicts: planNameConflicts,
		periodLockDenied:  periodLockDenied,
		paymentsRecorded:  paymentsRecorded,
	}, nil
}

// RecordBillingDenied counts gate denials by billing status and request class.
func (m *Metrics) RecordBillingDenied(ctx context.Context, billingStatus, requestClass string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("billing_status", strings.TrimSpace(billingStatus)),
		attribute.String("request_class", strings.TrimSpace(requestClass)),
	)
	m.billingDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPlanNameConflict counts scoped-name conflicts by scope.
func (m *Metrics) RecordPlanNameConflict(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("scope", strings.TrimSpace(scope)))
	m.planNameConflicts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPeriodLockDenied counts financial mutations refused by a month lock.
func (m *Metrics) RecordPeriodLockDenied(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("operation", strings.TrimSpace(operation)))
	m.periodLockDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPaymentRecorded counts successful payment writes by method.
func (m *Metrics) RecordPaymentRecorded(ctx context.Context, method string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("method", strings.TrimSpace(method)))
	m.paymentsRecorded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"billing_status": {},
	"request_class":  {},
	"scope":          {},
	"operation":      {},
	"method":         {},
	"status_code":    {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
