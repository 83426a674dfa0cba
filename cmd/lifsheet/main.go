package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"lifsheet/internal/config"
	"lifsheet/internal/metrics"
	"lifsheet/internal/pipeline"
	"lifsheet/internal/report"
	"lifsheet/internal/server"
	"lifsheet/internal/sink"
	"lifsheet/internal/source"
	"lifsheet/internal/store"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	var (
		cfgPath  = flag.String("config", "", "path to YAML config (defaults are used when empty)")
		interval = flag.Duration("interval", 30*time.Second, "poll interval")
		once     = flag.Bool("once", false, "run a single cycle then exit")
		serve    = flag.Bool("serve", false, "serve the HTTP API alongside polling")
		verbose  = flag.Bool("verbose", false, "enable debug logging")
		file     = flag.String("file", "", "generate the report for one LIF file and exit")
		out      = flag.String("out", "", "output PDF for -file (default: <event code>.pdf next to the input)")
	)
	flag.Parse()

	if *verbose {
		log.SetLevel(log.LevelDebug)
	} else {
		log.SetLevel(log.LevelInfo)
	}
	log.Infof("lifsheet %s starting...", Version)

	cfg := config.Default()
	if *cfgPath != "" {
		c, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = c
	}

	builder := report.NewBuilder(report.Options{
		Threshold: cfg.Report.DiscrepancyThreshold,
		Scale:     cfg.Report.RenderScale,
	})

	if *file != "" {
		if err := convert(builder, *file, *out); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enable {
		m = metrics.New()
	}

	var d *store.Dedup
	if cfg.Dedup.Enable {
		d = store.NewDedup(cfg.Dedup.MaxKeys, cfg.Dedup.TTL)
		log.Infof("dedup enabled: max=%d ttl=%s", cfg.Dedup.MaxKeys, cfg.Dedup.TTL)
	} else {
		log.Infof("dedup disabled")
	}

	sinks := sink.FromConfig(cfg)
	for _, s := range sinks {
		log.Infof("configured sink: %s", s.Name())
	}
	if len(sinks) == 0 && !*serve {
		log.Fatal("no outputs configured (enable output.pdf, output.png, loki or -serve)")
	}

	dir := source.NewDir(cfg.SearchPaths, cfg.Filter)
	p := &pipeline.Pipeline{
		Source:    dir,
		Builder:   builder,
		Sinks:     sinks,
		Dedup:     d,
		Metrics:   m,
		StatePath: cfg.StatePath,
	}
	if err := p.LoadState(); err != nil {
		log.Warnf("%v, starting fresh", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *serve {
		srv := server.New(cfg.Server, dir, builder, m)
		go func() {
			if err := srv.Serve(); err != nil {
				log.Errorf("http server: %v", err)
				cancel()
			}
		}()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
			defer scancel()
			if err := srv.Shutdown(sctx); err != nil {
				log.Warnf("http shutdown: %v", err)
			}
		}()
	}

	runOnce := func() {
		sum, err := p.RunOnce(ctx)
		if err != nil {
			log.Errorf("cycle: %v", err)
			return
		}
		if sum.Processed > 0 || sum.Failed > 0 {
			log.Infof("cycle: %d processed, %d failed, %d flag(s) in %s",
				sum.Processed, sum.Failed, sum.Flags, sum.Duration.Truncate(time.Millisecond))
		}
	}

	log.Infof("lifsheet started: %d search path(s), interval=%s", len(cfg.SearchPaths), interval.String())
	runOnce()
	if *once {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Infof("stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// convert writes the report for one file.
func convert(b *report.Builder, in, out string) error {
	raw, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	r, err := b.FromBytes(raw, filepath.Base(in))
	if err != nil {
		return err
	}
	if out == "" {
		out = filepath.Join(filepath.Dir(in), r.FileName())
	}
	if err := r.Sheet.Document.Save(out); err != nil {
		return fmt.Errorf("save %s: %w", out, err)
	}
	for _, f := range r.Flags() {
		log.Warnf("potential mismatch, lane %d, place %d (official %s)", f.Lane, f.Place, f.Official)
	}
	log.Infof("wrote %s (%d page(s))", out, r.PageCount())
	return nil
}
