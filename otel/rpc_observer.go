// Package otel provides OpenTelemetry integration for the mcp-droid
// dispatcher.
package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/YantaoMou/mcp-droid/server"
)

// RPCObserver records dispatcher signals into OpenTelemetry.
type RPCObserver struct {
	tracer trace.Tracer

	requests metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewRPCObserver creates a dispatch observer bound to the provided
// meter/tracer.
func NewRPCObserver(meter metric.Meter, tracer trace.Tracer) (*RPCObserver, error) {
	requests, err := meter.Int64Counter(
		"mcpdroid.rpc.requests",
		metric.WithDescription("Number of dispatched JSON-RPC requests"),
	)
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter(
		"mcpdroid.rpc.failures",
		metric.WithDescription("Number of dispatched requests that returned an error"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"mcpdroid.rpc.latency",
		metric.WithDescription("Dispatch latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RPCObserver{
		tracer:   tracer,
		requests: requests,
		failures: failures,
		latency:  latency,
	}, nil
}

// ObserveDispatch records one dispatched request.
func (o *RPCObserver) ObserveDispatch(observation server.DispatchObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("method", observation.Method),
		attribute.String("tool_name", observation.Tool),
		attribute.Bool("success", observation.Success),
	}
	if observation.ErrorCode != 0 {
		attrs = append(attrs, attribute.Int("error_code", observation.ErrorCode))
	}

	ctx := context.Background()
	options := metric.WithAttributes(attrs...)
	o.requests.Add(ctx, 1, options)
	if !observation.Success {
		o.failures.Add(ctx, 1, options)
	}
	o.latency.Record(ctx, float64(time.Duration(observation.DurationMS)*time.Millisecond)/float64(time.Second), options)

	if o.tracer == nil {
		return
	}
	_, span := o.tracer.Start(ctx, "rpc.dispatch", trace.WithAttributes(attrs...))
	if observation.Success {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, observation.Method)
	}
	span.End()
}

var _ server.Observer = (*RPCObserver)(nil)
