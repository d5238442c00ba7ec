// Package otelbridge bridges a structured tracing framework's span
// lifecycle to the engine: it maps an OpenTelemetry span's name to an
// event id (memoized per name), and mirrors span start/end and
// attributes onto the engine as (event_id, value) pairs.
package otelbridge

import (
	"context"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	extrae "github.com/Ergus/Extrae-rs"
	"github.com/Ergus/Extrae-rs/internal/elog"
)

// Processor implements go.opentelemetry.io/otel/sdk/trace.SpanProcessor,
// so it can be installed with sdktrace.WithSpanProcessor alongside (or
// instead of) exporters.
//
// A Processor is bound to one extrae.ThreadInfo at construction, and
// OnStart/OnEnd emit through that handle directly: the SpanProcessor
// interface gives OnEnd no context to carry a handle through, so
// binding at New time is what keeps span emission off the shared
// lookup path the same way guard.Site.Enter does. A TracerProvider fed
// spans from more than one goroutine needs one Processor (and
// typically one TracerProvider) per goroutine.
type Processor struct {
	ti  *extrae.ThreadInfo
	ids sync.Map // span name (string) -> event id (uint16)
}

var _ sdktrace.SpanProcessor = (*Processor)(nil)

// New returns a Processor bound to ti, ready to register with an
// OpenTelemetry TracerProvider used from ti's goroutine.
func New(ti *extrae.ThreadInfo) *Processor {
	return &Processor{ti: ti}
}

func (p *Processor) eventID(name string) uint16 {
	if v, ok := p.ids.Load(name); ok {
		return v.(uint16)
	}
	id, err := extrae.RegisterEventName(name, "", 0, nil)
	if err != nil {
		// With no requested id, registration fails only when the
		// internal id space is exhausted. Fall back to an id another
		// call already stored for this name, if there is one, rather
		// than fail the span.
		if v, ok := p.ids.Load(name); ok {
			return v.(uint16)
		}
		return 0
	}
	actual, _ := p.ids.LoadOrStore(name, id)
	return actual.(uint16)
}

// OnStart emits (event_id, 1) for the span's name.
func (p *Processor) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	id := p.eventID(s.Name())
	if id == 0 {
		return
	}
	if err := p.ti.Emit(id, 1); err != nil {
		elog.Errorw("span start emit failed", "event", id, "error", err)
	}
}

// OnEnd emits (event_id, 0) for the span's name, and, for each
// attribute on the span, registers and emits a value name under that
// event id.
func (p *Processor) OnEnd(s sdktrace.ReadOnlySpan) {
	id := p.eventID(s.Name())
	if id == 0 {
		return
	}
	for _, kv := range s.Attributes() {
		value, err := extrae.RegisterEventValueName(id, string(kv.Key), "", 0, nil)
		if err != nil {
			continue
		}
		if err := p.ti.Emit(id, value); err != nil {
			elog.Errorw("span attribute emit failed", "event", id, "error", err)
		}
	}
	if err := p.ti.Emit(id, 0); err != nil {
		elog.Errorw("span end emit failed", "event", id, "error", err)
	}
}

// Shutdown is a no-op: the engine's own finalize lifecycle (driven by
// the bootstrapping thread's detach) owns closing the trace, not the
// span processor.
func (p *Processor) Shutdown(context.Context) error { return nil }

// ForceFlush is a no-op: buffers flush themselves once full or on
// thread detach; there is no separate exporter-style flush to drive.
func (p *Processor) ForceFlush(context.Context) error { return nil }
