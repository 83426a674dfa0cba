package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `
search_paths: [/data/lif, /mnt/timing]
filter: "500m"
output:
  pdf: {enabled: true, path: /data/out}
loki:
  url: http://loki:3100
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.SearchPaths) != 2 || c.SearchPaths[1] != "/mnt/timing" {
		t.Errorf("Unexpected search paths %v", c.SearchPaths)
	}
	if c.Filter != "500m" {
		t.Errorf("Expected filter 500m, got %q", c.Filter)
	}
	if !c.Output.PDF.Enabled || c.Output.PDF.Path != "/data/out" {
		t.Errorf("Unexpected pdf output %+v", c.Output.PDF)
	}
	if c.Output.PNG.Enabled || c.Output.PNG.Path != "./out/png" {
		t.Errorf("Unexpected png output %+v", c.Output.PNG)
	}
	if c.Report.DiscrepancyThreshold != 0.4 || c.Report.RenderScale != 4.0 {
		t.Errorf("Unexpected report defaults %+v", c.Report)
	}
	if c.Server.ListenAddress != ":9110" || c.Server.WriteTimeout != 30*time.Second {
		t.Errorf("Unexpected server defaults %+v", c.Server)
	}
	if c.Loki.Job != "lifsheet" || c.Loki.MaxRetries != 3 || c.Loki.Backoff != 500*time.Millisecond {
		t.Errorf("Unexpected loki defaults %+v", c.Loki)
	}
	if c.Dedup.TTL != 168*time.Hour || c.Dedup.MaxKeys != 10000 {
		t.Errorf("Unexpected dedup defaults %+v", c.Dedup)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"bad yaml", "search_paths: [unterminated"},
		{"negative threshold", "report: {discrepancy_threshold: -1}"},
		{"empty search path", `search_paths: ["", "/x"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yml)); err == nil {
				t.Error("Expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if !c.Output.PDF.Enabled || !c.Dedup.Enable || !c.Metrics.Enable {
		t.Errorf("Unexpected toggles %+v", c)
	}
	if c.SearchPaths[0] != "./lif" || c.StatePath != "./lifsheet-state.json" {
		t.Errorf("Unexpected paths %v %q", c.SearchPaths, c.StatePath)
	}
}

func TestParseKeepsDefaultToggles(t *testing.T) {
	c, err := Parse([]byte("search_paths: [/data/lif]\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(c.SearchPaths) != 1 || c.SearchPaths[0] != "/data/lif" {
		t.Errorf("Unexpected search paths %v", c.SearchPaths)
	}
	if !c.Output.PDF.Enabled || !c.Dedup.Enable || !c.Metrics.Enable {
		t.Errorf("Expected pdf, dedup and metrics to stay enabled, got %+v %+v %+v", c.Output.PDF, c.Dedup, c.Metrics)
	}

	c, err = Parse([]byte("output:\n  pdf: {enabled: false}\ndedup: {enable: false}\nmetrics: {enable: false}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Output.PDF.Enabled || c.Dedup.Enable || c.Metrics.Enable {
		t.Errorf("Expected explicit false to disable, got %+v %+v %+v", c.Output.PDF, c.Dedup, c.Metrics)
	}
	if c.Output.PDF.Path != "./out" {
		t.Errorf("Expected default pdf path, got %q", c.Output.PDF.Path)
	}
}
