package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"lifsheet/internal/metrics"
	"lifsheet/internal/report"
	"lifsheet/internal/sink"
	"lifsheet/internal/source"
	"lifsheet/internal/store"
)

const heatLIF = "EVT01,,,500m Heat,,,,,,,,10:00\n" +
	"1,100,2,Doe,Jane,Club A,40.5,,,,(10.5)(30.0),10:00:01\n" +
	"2,101,4,Roe,Ann,Club B,45.0,,,,(11.0)(20.0),10:00:01\n"

type recordingSink struct {
	name   string
	err    error
	pushed []string
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Push(ctx context.Context, r *report.Report) error {
	if s.err != nil {
		return s.err
	}
	s.pushed = append(s.pushed, r.Source)
	return nil
}

func setup(t *testing.T, sinks ...sink.Sink) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	p := &Pipeline{
		Source:    source.NewDir([]string{dir}, ""),
		Builder:   report.NewBuilder(report.Options{Threshold: 0.4}),
		Sinks:     sinks,
		Dedup:     store.NewDedup(100, time.Hour),
		Metrics:   metrics.New(),
		StatePath: filepath.Join(t.TempDir(), "state.json"),
	}
	if err := p.LoadState(); err != nil {
		t.Fatal(err)
	}
	return p, dir
}

func write(t *testing.T, dir, name, content string, mod time.Time) {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(p, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestRunOnce(t *testing.T) {
	rec := &recordingSink{name: "rec"}
	p, dir := setup(t, rec)
	mod := time.Unix(1700000000, 0)
	write(t, dir, "heat.lif", heatLIF, mod)
	write(t, dir, "broken.lif", "EVT02,x\n", mod.Add(time.Minute))

	sum, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if sum.Listed != 2 || sum.Processed != 1 || sum.Failed != 1 || sum.Flags != 1 {
		t.Errorf("Unexpected summary %+v", sum)
	}
	if len(rec.pushed) != 1 || rec.pushed[0] != "heat.lif" {
		t.Errorf("Unexpected pushes %v", rec.pushed)
	}

	// nothing new: the good file is skipped, the broken one retried
	sum, _ = p.RunOnce(context.Background())
	if sum.Skipped != 1 || sum.Failed != 1 || len(rec.pushed) != 1 {
		t.Errorf("Unexpected second cycle %+v, pushes %v", sum, rec.pushed)
	}

	// rewriting the file processes it again
	write(t, dir, "heat.lif", heatLIF, mod.Add(time.Hour))
	sum, _ = p.RunOnce(context.Background())
	if sum.Processed != 1 || len(rec.pushed) != 2 {
		t.Errorf("Expected rewritten file to be processed, got %+v", sum)
	}

	reg := p.Metrics.Registry
	if n, err := testutil.GatherAndCount(reg, "lifsheet_files_processed_total"); err != nil || n != 2 {
		t.Errorf("Expected ok and parse_error series, got %d (%v)", n, err)
	}

	state, err := store.LoadRunState(p.StatePath)
	if err != nil {
		t.Fatal(err)
	}
	heat := state.Files[filepath.Join(dir, "heat.lif")]
	if heat.EventCode != "EVT01" || heat.Flags != 1 || heat.ReportID == "" {
		t.Errorf("Unexpected persisted state %+v", heat)
	}
	if state.Files[filepath.Join(dir, "broken.lif")].Error == "" {
		t.Error("Expected the failure to be persisted")
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	rec := &recordingSink{name: "rec"}
	p, dir := setup(t, rec)
	write(t, dir, "heat.lif", heatLIF, time.Unix(1700000000, 0))
	if _, err := p.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	restarted := &Pipeline{
		Source:    p.Source,
		Builder:   p.Builder,
		Sinks:     []sink.Sink{rec},
		Dedup:     store.NewDedup(100, time.Hour),
		StatePath: p.StatePath,
	}
	if err := restarted.LoadState(); err != nil {
		t.Fatal(err)
	}
	sum, err := restarted.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Skipped != 1 || len(rec.pushed) != 1 {
		t.Errorf("Expected processed file to be skipped after restart, got %+v", sum)
	}
}

func TestSinkFailureRetriesNextCycle(t *testing.T) {
	bad := &recordingSink{name: "bad", err: errors.New("disk full")}
	p, dir := setup(t, bad)
	write(t, dir, "heat.lif", heatLIF, time.Unix(1700000000, 0))

	sum, _ := p.RunOnce(context.Background())
	if sum.Failed != 1 {
		t.Fatalf("Expected failure, got %+v", sum)
	}
	fs := p.State().Files[filepath.Join(dir, "heat.lif")]
	if fs.Error == "" || fs.EventCode != "EVT01" {
		t.Errorf("Unexpected state %+v", fs)
	}

	bad.err = nil
	sum, _ = p.RunOnce(context.Background())
	if sum.Processed != 1 {
		t.Errorf("Expected retry to succeed, got %+v", sum)
	}
}

func TestRunOnceCancelled(t *testing.T) {
	p, dir := setup(t)
	write(t, dir, "heat.lif", heatLIF, time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.RunOnce(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
