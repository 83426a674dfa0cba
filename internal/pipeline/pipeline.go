// Package pipeline runs polling cycles over the configured search paths.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"lifsheet/internal/lif"
	"lifsheet/internal/metrics"
	"lifsheet/internal/report"
	"lifsheet/internal/sink"
	"lifsheet/internal/source"
	"lifsheet/internal/store"
	"lifsheet/internal/timesheet"
)

type Pipeline struct {
	Source    source.Source
	Builder   *report.Builder
	Sinks     []sink.Sink
	Dedup     *store.Dedup // nil disables dedup
	Metrics   *metrics.Metrics
	StatePath string // empty disables persistence

	state store.RunState
}

// Summary describes one cycle.
type Summary struct {
	Listed    int
	Skipped   int
	Processed int
	Failed    int
	Flags     int
	Duration  time.Duration
}

// LoadState restores the run state and seeds Dedup with it.
func (p *Pipeline) LoadState() error {
	p.state = store.NewRunState()
	if p.StatePath == "" {
		return nil
	}
	s, err := store.LoadRunState(p.StatePath)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	p.state = s
	if p.Dedup != nil {
		n := s.Seed(p.Dedup)
		log.Debugf("seeded dedup with %d processed file(s)", n)
	}
	return nil
}

func (p *Pipeline) State() store.RunState { return p.state }

// RunOnce processes every new file once, sequentially. Per-file failures are
// logged and counted; only listing and context errors abort the cycle.
func (p *Pipeline) RunOnce(ctx context.Context) (Summary, error) {
	start := time.Now()
	var sum Summary
	if p.state.Files == nil {
		p.state = store.NewRunState()
	}

	files, err := p.Source.List(ctx)
	if err != nil {
		return sum, fmt.Errorf("list %s: %w", p.Source.Name(), err)
	}
	sum.Listed = len(files)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		key := store.FileKey(f.Path, f.ModTime)
		if p.Dedup != nil && p.Dedup.Seen(key) {
			sum.Skipped++
			continue
		}

		fs, err := p.Process(ctx, f)
		p.state.Record(fs)
		if err != nil {
			sum.Failed++
			log.Errorf("%s: %v", f.Name, err)
			continue
		}
		if p.Dedup != nil {
			p.Dedup.Mark(key)
		}
		sum.Processed++
		sum.Flags += fs.Flags
	}

	p.state.LastRun = time.Now().UTC()
	if p.StatePath != "" {
		if err := store.SaveRunState(p.StatePath, p.state); err != nil {
			log.Warnf("save state %s: %v", p.StatePath, err)
		}
	}
	if sum.Failed == 0 {
		p.Metrics.CycleSucceeded(time.Now())
	}
	sum.Duration = time.Since(start)
	log.Debugf("cycle finished in %s: listed=%d skipped=%d processed=%d failed=%d",
		sum.Duration.Truncate(time.Millisecond), sum.Listed, sum.Skipped, sum.Processed, sum.Failed)
	return sum, nil
}

// Process generates the report for f and pushes it to every sink. The
// returned FileState is filled in on failure too.
func (p *Pipeline) Process(ctx context.Context, f source.File) (store.FileState, error) {
	fs := store.FileState{Path: f.Path, ModTime: f.ModTime, ProcessedAt: time.Now().UTC()}
	fail := func(status string, err error) (store.FileState, error) {
		p.Metrics.FileProcessed(status)
		fs.Error = err.Error()
		return fs, err
	}

	raw, err := p.Source.Read(ctx, f)
	if err != nil {
		return fail("read_error", err)
	}

	started := time.Now()
	r, err := p.Builder.FromBytes(raw, f.Name)
	if err != nil {
		return fail(buildStatus(err), err)
	}
	p.Metrics.ReportGenerated(time.Since(started), r.PageCount(), len(r.Flags()))
	fs.EventCode = r.Race.Event.EventCode
	fs.ReportID = r.ID.String()
	fs.Flags = len(r.Flags())
	fs.Pages = r.PageCount()

	var errs []error
	for _, sk := range p.Sinks {
		err := sk.Push(ctx, r)
		p.Metrics.SinkPush(sk.Name(), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("push %s: %w", sk.Name(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fail("sink_error", err)
	}

	p.Metrics.FileProcessed("ok")
	log.Infof("%s: event %s, %d competitor(s), %d page(s), %d flag(s)",
		f.Name, fs.EventCode, len(r.Race.Competitors), fs.Pages, fs.Flags)
	return fs, nil
}

func buildStatus(err error) string {
	var perr *lif.ParseError
	var lerr *timesheet.LayoutError
	switch {
	case errors.As(err, &perr):
		return "parse_error"
	case errors.As(err, &lerr):
		return "layout_error"
	default:
		return "error"
	}
}
