package sink

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"lifsheet/internal/config"
	"lifsheet/internal/report"
	"lifsheet/internal/util"
)

type victoriaSink struct {
	cfg    config.VictoriaConfig
	client *http.Client
}

func NewVictoria(cfg config.VictoriaConfig) Sink {
	return &victoriaSink{cfg: cfg, client: util.NewHTTPClient(cfg.Timeout)}
}

func (v *victoriaSink) Name() string { return "victoria" }

// Push imports per-report gauges in Prometheus text format.
func (v *victoriaSink) Push(ctx context.Context, r *report.Report) error {
	body, err := reportSamples(r)
	if err != nil {
		return err
	}
	return util.Retry(ctx, v.cfg.MaxRetries, v.cfg.Backoff, v.cfg.MaxBackoff, func() error {
		return v.send(ctx, body)
	})
}

func reportSamples(r *report.Report) ([]byte, error) {
	reg := prometheus.NewRegistry()
	labels := []string{"event_code", "source"}
	gauge := func(name, help string, val float64) {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "lifsheet", Name: name, Help: help}, labels)
		g.WithLabelValues(r.Race.Event.EventCode, r.Source).Set(val)
		reg.MustRegister(g)
	}
	gauge("report_competitors", "Competitors in the race", float64(len(r.Race.Competitors)))
	gauge("report_flags", "Competitors flagged as potential mismatches", float64(len(r.Flags())))
	gauge("report_pages", "Pages in the generated report", float64(r.PageCount()))
	gauge("report_splits_max", "Most transponder splits recorded by one competitor", float64(r.Race.MaxSplits()))

	mfs, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (v *victoriaSink) send(ctx context.Context, body []byte) error {
	url := strings.TrimRight(v.cfg.URL, "/") + "/api/v1/import/prometheus"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	if ua := v.cfg.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &util.StatusError{Target: "victoria import", Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return nil
}
