package otel_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace/noop"

	droidotel "github.com/YantaoMou/mcp-droid/otel"
	"github.com/YantaoMou/mcp-droid/server"
)

// newTestMeter returns a meter backed by a manual reader for collecting metrics in tests.
func newTestMeter() (*metric.ManualReader, *metric.MeterProvider) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *metric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, scope := range rm.ScopeMetrics {
		for i := range scope.Metrics {
			if scope.Metrics[i].Name == name {
				return &scope.Metrics[i]
			}
		}
	}
	return nil
}

func TestRPCObserverRecordsMetrics(t *testing.T) {
	reader, mp := newTestMeter()
	meter := mp.Meter("test-rpc-observer")
	tracer := noop.NewTracerProvider().Tracer("test-rpc-observer")

	observer, err := droidotel.NewRPCObserver(meter, tracer)
	if err != nil {
		t.Fatalf("NewRPCObserver() error = %v", err)
	}

	observer.ObserveDispatch(server.DispatchObservation{
		Method:     "tools/list_devices",
		Tool:       "list_devices",
		Success:    true,
		DurationMS: 12,
	})
	observer.ObserveDispatch(server.DispatchObservation{
		Method:     "tools/execute_shell",
		Tool:       "execute_shell",
		Success:    false,
		ErrorCode:  -32000,
		DurationMS: 80,
	})

	rm := collectMetrics(t, reader)

	requests := findMetric(rm, "mcpdroid.rpc.requests")
	if requests == nil {
		t.Fatal("mcpdroid.rpc.requests metric not found")
	}
	sum, ok := requests.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("mcpdroid.rpc.requests type = %T, want Sum[int64]", requests.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 2 {
		t.Errorf("requests total = %d, want 2", total)
	}

	failures := findMetric(rm, "mcpdroid.rpc.failures")
	if failures == nil {
		t.Fatal("mcpdroid.rpc.failures metric not found")
	}
	failSum, ok := failures.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("mcpdroid.rpc.failures type = %T, want Sum[int64]", failures.Data)
	}
	var failTotal int64
	for _, dp := range failSum.DataPoints {
		failTotal += dp.Value
	}
	if failTotal != 1 {
		t.Errorf("failures total = %d, want 1", failTotal)
	}

	latency := findMetric(rm, "mcpdroid.rpc.latency")
	if latency == nil {
		t.Fatal("mcpdroid.rpc.latency metric not found")
	}
	if _, ok := latency.Data.(metricdata.Histogram[float64]); !ok {
		t.Fatalf("mcpdroid.rpc.latency type = %T, want Histogram[float64]", latency.Data)
	}
}

func TestRPCObserverNilReceiver(t *testing.T) {
	var observer *droidotel.RPCObserver
	// Must not panic.
	observer.ObserveDispatch(server.DispatchObservation{Method: "tools/list"})
}
