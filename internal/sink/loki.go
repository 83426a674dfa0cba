package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"lifsheet/internal/config"
	"lifsheet/internal/report"
	"lifsheet/internal/util"
)

type lokiSink struct {
	cfg    config.LokiConfig
	client *http.Client
}

func NewLoki(cfg config.LokiConfig) Sink {
	return &lokiSink{cfg: cfg, client: util.NewHTTPClient(cfg.Timeout)}
}

func (l *lokiSink) Name() string { return "loki" }

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type lokiPayload struct {
	Streams []lokiStream `json:"streams"`
}

// Push sends one summary line per report plus one line per flagged competitor.
func (l *lokiSink) Push(ctx context.Context, r *report.Report) error {
	body, err := json.Marshal(l.payload(r))
	if err != nil {
		return err
	}
	return util.Retry(ctx, l.cfg.MaxRetries, l.cfg.Backoff, l.cfg.MaxBackoff, func() error {
		return l.send(ctx, body)
	})
}

func (l *lokiSink) payload(r *report.Report) lokiPayload {
	ts := strconv.FormatInt(r.Generated.UnixNano(), 10)
	labels := map[string]string{
		"job":        l.cfg.Job,
		"event_code": r.Race.Event.EventCode,
	}

	summary, _ := json.Marshal(map[string]any{
		"report_id":   r.ID.String(),
		"source":      r.Source,
		"event_name":  r.Race.Event.EventName,
		"start_time":  r.Race.Event.StartTime,
		"competitors": len(r.Race.Competitors),
		"pages":       r.PageCount(),
		"flags":       len(r.Flags()),
	})
	summaryLabels := map[string]string{"kind": "report"}
	for k, v := range labels {
		summaryLabels[k] = v
	}
	out := lokiPayload{Streams: []lokiStream{{
		Stream: summaryLabels,
		Values: [][2]string{{ts, string(summary)}},
	}}}

	flags := r.Flags()
	if len(flags) == 0 {
		return out
	}
	flagLabels := map[string]string{"kind": "discrepancy"}
	for k, v := range labels {
		flagLabels[k] = v
	}
	values := make([][2]string, 0, len(flags))
	for _, f := range flags {
		line, _ := json.Marshal(struct {
			ReportID  string  `json:"report_id"`
			Lane      uint8   `json:"lane"`
			Place     uint8   `json:"place"`
			SkaterID  uint32  `json:"skater_id"`
			Official  string  `json:"official"`
			ClosestBy float64 `json:"closest_by"` // seconds to the nearest split sum
			NoSplits  bool    `json:"no_splits"`
		}{r.ID.String(), f.Lane, f.Place, f.SkaterID, f.Official, f.ClosestBy, f.NoSplits})
		values = append(values, [2]string{ts, string(line)})
	}
	out.Streams = append(out.Streams, lokiStream{Stream: flagLabels, Values: values})
	return out
}

func (l *lokiSink) send(ctx context.Context, body []byte) error {
	url := strings.TrimRight(l.cfg.URL, "/") + "/loki/api/v1/push"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if l.cfg.TenantID != "" {
		req.Header.Set("X-Scope-OrgID", l.cfg.TenantID)
	}
	if ua := l.cfg.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &util.StatusError{Target: "loki push", Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return nil
}
