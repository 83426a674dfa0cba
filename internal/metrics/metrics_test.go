package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.FileProcessed("ok")
	m.FileProcessed("ok")
	m.FileProcessed("parse_error")
	m.ReportGenerated(20*time.Millisecond, 2, 3)
	m.SinkPush("loki", nil)
	m.SinkPush("loki", errors.New("down"))

	if v := testutil.ToFloat64(m.filesTotal.WithLabelValues("ok")); v != 2 {
		t.Errorf("Expected 2 ok files, got %v", v)
	}
	if v := testutil.ToFloat64(m.discrepancies); v != 3 {
		t.Errorf("Expected 3 discrepancies, got %v", v)
	}
	if v := testutil.ToFloat64(m.sinkTotal.WithLabelValues("loki", "error")); v != 1 {
		t.Errorf("Expected 1 sink error, got %v", v)
	}

	expected := `
# HELP lifsheet_files_processed_total LIF files handled by the pipeline by status
# TYPE lifsheet_files_processed_total counter
lifsheet_files_processed_total{status="ok"} 2
lifsheet_files_processed_total{status="parse_error"} 1
`
	if err := testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "lifsheet_files_processed_total"); err != nil {
		t.Error(err)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.FileProcessed("ok")
	m.ReportGenerated(time.Second, 1, 0)
	m.SinkPush("pdf", nil)
	m.CycleSucceeded(time.Now())
	m.Request("/healthz", "200")
}
