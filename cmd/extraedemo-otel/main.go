// Command extraedemo-otel runs two instrumented tasks concurrently as
// goroutines, each wrapped in extrae.Run so it shows up as its own
// thread in the trace, and each with its own otelbridge.Processor
// bound to that thread's handle.
package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	extrae "github.com/Ergus/Extrae-rs"
	"github.com/Ergus/Extrae-rs/otelbridge"
)

func runTraced(wg *sync.WaitGroup, spanName string, work time.Duration) {
	defer wg.Done()
	extrae.Run(func(ti *extrae.ThreadInfo) {
		processor := otelbridge.New(ti)
		provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(processor))
		defer provider.Shutdown(context.Background())

		tracer := provider.Tracer("extraedemo-otel")
		_, span := tracer.Start(context.Background(), spanName)
		time.Sleep(work)
		span.End()
	})
}

func main() {
	fmt.Println("Start Program")
	ti := extrae.Attach()
	defer ti.Close()

	var wg sync.WaitGroup
	wg.Add(2)

	go runTraced(&wg, "task1", 500*time.Millisecond)
	go runTraced(&wg, "custom_task2", 300*time.Millisecond)

	wg.Wait()
	fmt.Println("Done")
}
