// Package otel bridges the engine's in-process counters to an OpenTelemetry
// meter. Counters are exported as observable instruments read on collection;
// the engine's hot path stays a plain atomic add.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	admission "github.com/automotiv/khetisahayak-sub000"
	"github.com/automotiv/khetisahayak-sub000/metrics/export/internaldefs"
)

// Source is the read side an exporter needs. *admission.Engine satisfies it.
type Source interface {
	MetricsSnapshot() admission.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter owns the registered instruments and callback.
type Exporter struct {
	registration metric.Registration
}

// Register creates one observable counter per engine metric on the meter and
// wires a single collection callback that snapshots the source.
func Register(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil || source == nil {
		return nil, fmt.Errorf("meter and source are required")
	}

	defs := internaldefs.Counters()

	instruments := make(map[admission.MetricID]metric.Int64ObservableCounter, len(defs))
	observables := make([]metric.Observable, 0, len(defs)+1)
	for _, def := range defs {
		counter, err := meter.Int64ObservableCounter(def.Name,
			metric.WithDescription(def.Description))
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", def.Name, err)
		}
		instruments[def.ID] = counter
		observables = append(observables, counter)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription("Audit events dropped under backpressure."))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", internaldefs.AuditDroppedName, err)
	}
	observables = append(observables, dropped)

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snap := source.MetricsSnapshot()
		for _, def := range defs {
			observer.ObserveInt64(instruments[def.ID], int64(snap.Counters[def.ID]))
		}
		observer.ObserveInt64(dropped, int64(source.AuditDropped()))
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("registering metrics callback: %w", err)
	}

	return &Exporter{registration: registration}, nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
