package sink

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"lifsheet/internal/report"
)

type pdfDir struct {
	dir string
}

// NewPDFDir writes <dir>/<event code>.pdf, replacing earlier versions.
func NewPDFDir(dir string) Sink { return &pdfDir{dir: dir} }

func (p *pdfDir) Name() string { return "pdf" }

func (p *pdfDir) Push(ctx context.Context, r *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(p.dir, r.FileName()), r.PDF)
}

type pngDir struct {
	dir string
}

// NewPNGDir writes one <event code>-<page>.png per page.
func NewPNGDir(dir string) Sink { return &pngDir{dir: dir} }

func (p *pngDir) Name() string { return "png" }

func (p *pngDir) Push(ctx context.Context, r *report.Report) error {
	raster, err := r.Rasterize()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(r.FileName(), ".pdf")
	for i := range raster.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, raster.Image(i)); err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("%s-%d.png", base, i+1)
		if err := writeAtomic(filepath.Join(p.dir, name), buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// writeAtomic replaces path so readers never see a partial file.
func writeAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".lifsheet-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
