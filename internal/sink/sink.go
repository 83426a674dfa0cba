package sink

import (
	"context"

	"lifsheet/internal/config"
	"lifsheet/internal/report"
)

// Sink receives every successfully generated report.
type Sink interface {
	Name() string
	Push(ctx context.Context, r *report.Report) error
}

// FromConfig builds the sinks enabled in c, in a fixed order: pdf, png, loki, victoria.
func FromConfig(c *config.Config) []Sink {
	var out []Sink
	if c.Output.PDF.Enabled {
		out = append(out, NewPDFDir(c.Output.PDF.Path))
	}
	if c.Output.PNG.Enabled {
		out = append(out, NewPNGDir(c.Output.PNG.Path))
	}
	if c.Loki.URL != "" {
		out = append(out, NewLoki(c.Loki))
	}
	if c.Victoria.URL != "" {
		out = append(out, NewVictoria(c.Victoria))
	}
	return out
}
