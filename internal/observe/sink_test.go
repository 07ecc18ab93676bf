package observe

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func TestMulti(t *testing.T) {
	t.Run("no sinks is nop", func(t *testing.T) {
		s := Multi(nil, nil)
		s.Record(Event{Kind: BatchStarted}) // must not panic
	})

	t.Run("single sink returned as is", func(t *testing.T) {
		r := &recordingSink{}
		if got := Multi(nil, r); got != Sink(r) {
			t.Errorf("expected the single sink back, got %T", got)
		}
	})

	t.Run("fans out in order", func(t *testing.T) {
		a, b := &recordingSink{}, &recordingSink{}
		s := Multi(a, nil, b)
		s.Record(Event{Kind: ItemFinished, ItemID: "x"})
		s.Record(Event{Kind: ItemFinished, ItemID: "y"})

		for name, r := range map[string]*recordingSink{"a": a, "b": b} {
			if len(r.events) != 2 {
				t.Fatalf("sink %s: expected 2 events, got %d", name, len(r.events))
			}
			if r.events[0].ItemID != "x" || r.events[1].ItemID != "y" {
				t.Errorf("sink %s: unexpected order %+v", name, r.events)
			}
		}
	})
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewLogSink(logger)

	s.Record(Event{Kind: BatchStarted, BatchID: "b1", Strategy: "threads", Items: 2, Workers: 2})
	s.Record(Event{Kind: ItemFinished, BatchID: "b1", ItemID: "ok", Success: true, Duration: time.Millisecond})
	s.Record(Event{Kind: ItemFinished, BatchID: "b1", ItemID: "bad", Err: errors.New("boom")})
	s.Record(Event{Kind: BatchFinished, BatchID: "b1", Strategy: "threads", Items: 2, Failed: 1})

	out := buf.String()
	for _, want := range []string{
		"starting batch",
		"item succeeded",
		"item=ok",
		"level=WARN",
		"item=bad",
		"error=boom",
		"batch completed",
		"successful=1",
		"failed=1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %q\n%s", want, out)
		}
	}
}

func TestNewLogSink_NilLogger(t *testing.T) {
	s := NewLogSink(nil)
	if s.logger == nil {
		t.Fatal("expected default logger")
	}
}

func findFamily(t *testing.T, g prometheus.Gatherer, name string) *dto.MetricFamily {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() == name {
			return fam
		}
	}
	t.Fatalf("metric family %q not found", name)
	return nil
}

func counterValue(fam *dto.MetricFamily, labels map[string]string) float64 {
	for _, m := range fam.GetMetric() {
		match := true
		for _, lp := range m.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
				match = false
			}
		}
		if match {
			return m.GetCounter().GetValue()
		}
	}
	return -1
}

func TestMetricsSink(t *testing.T) {
	m := NewMetricsSink()

	m.Record(Event{Kind: BatchStarted, Strategy: "pipeline"})
	m.Record(Event{Kind: ItemFinished, Strategy: "pipeline", Success: true, Duration: 10 * time.Millisecond})
	m.Record(Event{Kind: ItemFinished, Strategy: "pipeline", Success: true, Duration: 20 * time.Millisecond})
	m.Record(Event{Kind: ItemFinished, Strategy: "pipeline", Success: false, Duration: 5 * time.Millisecond})
	m.Record(Event{Kind: BatchFinished, Strategy: "pipeline", Duration: 40 * time.Millisecond})

	items := findFamily(t, m.Registry(), "batchrun_items_total")
	if got := counterValue(items, map[string]string{"strategy": "pipeline", "status": statusSucceeded}); got != 2 {
		t.Errorf("succeeded = %v, want 2", got)
	}
	if got := counterValue(items, map[string]string{"strategy": "pipeline", "status": statusFailed}); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}

	batches := findFamily(t, m.Registry(), "batchrun_batches_total")
	if got := counterValue(batches, map[string]string{"strategy": "pipeline"}); got != 1 {
		t.Errorf("batches = %v, want 1", got)
	}

	inFlight := findFamily(t, m.Registry(), "batchrun_batches_in_flight")
	if got := inFlight.GetMetric()[0].GetGauge().GetValue(); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}

	hist := findFamily(t, m.Registry(), "batchrun_item_duration_seconds")
	if got := hist.GetMetric()[0].GetHistogram().GetSampleCount(); got != 3 {
		t.Errorf("item duration samples = %d, want 3", got)
	}
}

func TestMetricsSink_SeparateRegistries(t *testing.T) {
	// Two sinks in one process must not panic on duplicate registration.
	a := NewMetricsSink()
	b := NewMetricsSink()
	if a.Registry() == b.Registry() {
		t.Error("expected distinct registries")
	}
}

func TestWriteText(t *testing.T) {
	m := NewMetricsSink()
	m.Record(Event{Kind: ItemFinished, Strategy: "threads", Success: true})

	var buf bytes.Buffer
	if err := WriteText(&buf, m.Registry()); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "# TYPE batchrun_items_total counter") {
		t.Errorf("missing TYPE line:\n%s", out)
	}
	if !strings.Contains(out, `batchrun_items_total{status="succeeded",strategy="threads"} 1`) {
		t.Errorf("missing sample line:\n%s", out)
	}
}
