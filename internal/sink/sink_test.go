package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"lifsheet/internal/config"
	"lifsheet/internal/report"
	"lifsheet/internal/util"
)

const heatLIF = "EVT01,,,500m Heat,,,,,,,,10:00\n" +
	"1,100,2,Doe,Jane,Club A,40.5,,,,(10.5)(30.0),10:00:01\n" +
	"2,101,4,Roe,Ann,Club B,45.0,,,,(11.0)(20.0),10:00:01\n"

func buildReport(t *testing.T) *report.Report {
	t.Helper()
	r, err := report.NewBuilder(report.Options{Threshold: 0.4, Scale: 0.5}).FromBytes([]byte(heatLIF), "heat.lif")
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestPDFDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := buildReport(t)
	if err := NewPDFDir(dir).Push(context.Background(), r); err != nil {
		t.Fatalf("Push: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "EVT01.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, r.PDF) {
		t.Error("Written PDF differs from report bytes")
	}
}

func TestPNGDir(t *testing.T) {
	dir := t.TempDir()
	if err := NewPNGDir(dir).Push(context.Background(), buildReport(t)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "EVT01-1.png"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Error("Expected PNG signature")
	}
}

func TestLokiPush(t *testing.T) {
	var got lokiPayload
	var tenant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		tenant = r.Header.Get("X-Scope-OrgID")
		b, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(b, &got); err != nil {
			t.Errorf("Bad payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rep := buildReport(t)
	s := NewLoki(config.LokiConfig{URL: srv.URL + "/", TenantID: "rink", Job: "lifsheet", Timeout: time.Second, MaxRetries: 1})
	if err := s.Push(context.Background(), rep); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if tenant != "rink" {
		t.Errorf("Expected tenant header, got %q", tenant)
	}
	if len(got.Streams) != 2 {
		t.Fatalf("Expected report and discrepancy streams, got %+v", got.Streams)
	}
	flags := got.Streams[1]
	if flags.Stream["kind"] != "discrepancy" || flags.Stream["event_code"] != "EVT01" || len(flags.Values) != 1 {
		t.Errorf("Unexpected discrepancy stream %+v", flags)
	}
	var line map[string]any
	if err := json.Unmarshal([]byte(flags.Values[0][1]), &line); err != nil {
		t.Fatal(err)
	}
	if line["report_id"] != rep.ID.String() || line["lane"] != float64(4) {
		t.Errorf("Unexpected line %v", line)
	}
}

func TestLokiRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewLoki(config.LokiConfig{URL: srv.URL, Timeout: time.Second, MaxRetries: 3, Backoff: time.Millisecond, MaxBackoff: time.Millisecond})
	if err := s.Push(context.Background(), buildReport(t)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
}

func TestLokiClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "entry out of order", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewLoki(config.LokiConfig{URL: srv.URL, Timeout: time.Second, MaxRetries: 3, Backoff: time.Millisecond, MaxBackoff: time.Millisecond})
	err := s.Push(context.Background(), buildReport(t))
	var se *util.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest || se.Body != "entry out of order" {
		t.Errorf("Expected StatusError 400, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	c := config.Default()
	c.Output.PNG.Enabled = true
	c.Loki.URL = "http://loki:3100"
	c.Victoria.URL = "http://victoria-metrics:8428"
	var names []string
	for _, s := range FromConfig(c) {
		names = append(names, s.Name())
	}
	if strings.Join(names, ",") != "pdf,png,loki,victoria" {
		t.Errorf("Unexpected sinks %v", names)
	}
}

func TestVictoriaPush(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/import/prometheus" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewVictoria(config.VictoriaConfig{URL: srv.URL, Timeout: time.Second, MaxRetries: 1})
	if err := s.Push(context.Background(), buildReport(t)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	for _, want := range []string{
		`lifsheet_report_flags{event_code="EVT01",source="heat.lif"} 1`,
		`lifsheet_report_competitors{event_code="EVT01",source="heat.lif"} 2`,
		`lifsheet_report_pages{event_code="EVT01",source="heat.lif"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in:\n%s", want, body)
		}
	}
}
