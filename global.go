package extrae

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ergus/Extrae-rs/buffer"
	"github.com/Ergus/Extrae-rs/bufferset"
	"github.com/Ergus/Extrae-rs/config"
	"github.com/Ergus/Extrae-rs/internal/elog"
	"github.com/Ergus/Extrae-rs/internal/tid"
	"github.com/Ergus/Extrae-rs/internal/xerrors"
	"github.com/Ergus/Extrae-rs/merge"
	"github.com/Ergus/Extrae-rs/nameset"
	"github.com/Ergus/Extrae-rs/record"
)

const threadRunningEventName = "ThreadRunning"

// globalInfo is the singleton coordinator: it owns the NameSet and
// BufferSet, and runs finalization when the bootstrapping thread
// detaches.
type globalInfo struct {
	cfg                   config.Config
	names                 *nameset.NameSet
	buffers               *bufferset.BufferSet
	threadRunningEventID  uint16
	startWallclockSeconds uint64
	traceDir              string
	mainTID               int64

	finalizeOnce sync.Once
}

var (
	globalOnce sync.Once
	globalPtr  *globalInfo
)

// global returns the process-wide coordinator, constructing it lazily
// on first use. The calling thread is recorded as the "main" thread
// for the purposes of the finalize-on-detach rule.
func global() *globalInfo {
	globalOnce.Do(func() {
		globalPtr = newGlobalInfo()
	})
	return globalPtr
}

func newGlobalInfo() *globalInfo {
	cfg := config.Load()

	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		if logger, err := elog.FromLevel(zap.NewAtomicLevelAt(lvl)); err == nil {
			elog.SetDefault(logger)
		}
	}

	wallNow := time.Now()
	traceDir := fmt.Sprintf("TRACEDIR_%d", wallNow.UnixMilli())
	if err := os.Mkdir(traceDir, 0755); err != nil && !os.IsExist(err) {
		elog.Errorw("failed to create trace directory", "dir", traceDir, "error", err)
		panic(fmt.Errorf("extrae: create trace directory %s: %w", traceDir, err))
	}

	names := nameset.New()
	buffers := bufferset.New(traceDir)

	threadRunningEventID, err := names.RegisterEventNameInternal(threadRunningEventName)
	if err != nil {
		elog.Errorw("failed to register ThreadRunning event", "error", err)
		panic(err)
	}

	return &globalInfo{
		cfg:                   cfg,
		names:                 names,
		buffers:               buffers,
		threadRunningEventID:  threadRunningEventID,
		startWallclockSeconds: uint64(wallNow.Unix()),
		traceDir:              traceDir,
		mainTID:               tid.Current(),
	}
}

// acquireThread builds the ThreadInfo for key, registering it as a
// running thread and emitting its "enter" ThreadRunning event.
func (g *globalInfo) acquireThread(key int64) *ThreadInfo {
	ordinal, path := g.buffers.AcquireForThread(key)
	buf := buffer.New(ordinal, key, path, g.startWallclockSeconds)

	ti := &ThreadInfo{key: key, buf: buf, g: g}

	if err := buf.Emplace(g.threadRunningEventID, 1); err != nil {
		elog.Errorw("failed to emit thread-running=1", "thread", key, "error", err)
	}
	return ti
}

// detachThread retires key's buffer and, if key is the bootstrapping
// thread, runs finalize.
func (g *globalInfo) detachThread(ti *ThreadInfo) {
	if err := ti.buf.Emplace(g.threadRunningEventID, 0); err != nil {
		elog.Errorw("failed to emit thread-running=0", "thread", ti.key, "error", err)
	}
	if err := ti.buf.Close(); err != nil {
		elog.Errorw("failed to flush buffer on detach", "thread", ti.key, "error", err)
	}

	if _, err := g.buffers.Retire(ti.key, ti.buf.Ordinal()); err != nil {
		elog.Errorw("failed to retire thread", "thread", ti.key, "error", err)
	}

	if ti.key == g.mainTID {
		g.finalize()
	}
}

// finalize writes .row, .pcf and, if configured, .prv. It runs at
// most once per process. An empty trace only skips the .prv; any other
// write or merge error is logged and then panics.
func (g *globalInfo) finalize() {
	g.finalizeOnce.Do(func() {
		if running := g.buffers.Running(); running != 0 {
			elog.Warnw("finalize invoked while threads are still running", "running", running)
		}

		if err := g.buffers.WriteRow(filepath.Join(g.traceDir, "Trace.row")); err != nil {
			elog.Errorw("failed to write .row", "error", err)
			panic(err)
		}
		if err := g.names.WritePCF(filepath.Join(g.traceDir, "Trace.pcf")); err != nil {
			elog.Errorw("failed to write .pcf", "error", err)
			panic(err)
		}
		if !g.cfg.AutoMerge {
			return
		}

		result, err := merge.Merge(g.traceDir)
		if errors.Is(err, xerrors.ErrEmptyTrace) {
			elog.Warnw("nothing to merge, skipping .prv", "dir", g.traceDir, "error", err)
			return
		}
		if err != nil {
			elog.Errorw("failed to merge trace", "dir", g.traceDir, "error", err)
			panic(err)
		}
		if err := result.WritePRV(filepath.Join(g.traceDir, "Trace.prv")); err != nil {
			elog.Errorw("failed to write .prv", "error", err)
			panic(err)
		}
	})
}

// ThreadInfo is the thread-local handle returned by Attach. Its
// Emit/EmitMany methods are the fast path: they write straight to the
// buffer captured at acquisition, with no further lookup. Callers must
// call Close exactly once, from the same goroutine, when the "thread"
// is done emitting; Go has no destructor to do this automatically.
type ThreadInfo struct {
	key int64
	buf *buffer.Buffer
	g   *globalInfo
}

// Emit appends a single event built at the current instant.
func (t *ThreadInfo) Emit(eventID uint16, value uint32) error {
	return t.buf.Emplace(eventID, value)
}

// EmitMany appends events that all share one timestamp and core id,
// the way a hardware-counter sample binds several readings to one
// time point.
func (t *ThreadInfo) EmitMany(pairs []record.Pair) error {
	return t.buf.EmplaceMany(pairs)
}

// Close flushes and retires this thread's buffer, triggers finalize
// if this is the bootstrapping thread, and unlocks the OS thread
// Attach locked. Safe to call at most once.
func (t *ThreadInfo) Close() {
	t.g.detachThread(t)
	runtime.UnlockOSThread()
}
