package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"

	"lifsheet/internal/document"
	"lifsheet/internal/lif"
	"lifsheet/internal/model"
)

const heatLIF = "EVT01,,,500m Heat,,,,,,,,10:00\n" +
	"1,100,2,Doe,Jane,Club A,40.5,,,,(10.5)(30.0),10:00:01\n" +
	"2,101,4,Roe,Ann,Club B,45.0,,,,(11.0)(20.0),10:00:01\n"

func TestFromBytes(t *testing.T) {
	b := NewBuilder(Options{Threshold: 0.4, Scale: 1})
	r, err := b.FromBytes([]byte(heatLIF), "heat.lif")
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if r.ID == uuid.Nil {
		t.Error("Expected a report ID")
	}
	if r.Source != "heat.lif" || r.FileName() != "EVT01.pdf" {
		t.Errorf("Unexpected naming %q %q", r.Source, r.FileName())
	}
	if !bytes.HasPrefix(r.PDF, []byte("%PDF-")) {
		t.Error("Expected serialized PDF")
	}
	if r.PageCount() != 1 {
		t.Errorf("Expected 1 page, got %d", r.PageCount())
	}
	flags := r.Flags()
	if len(flags) != 1 || flags[0].Lane != 4 || flags[0].Place != 2 {
		t.Errorf("Unexpected flags %+v", flags)
	}

	other, _ := b.FromBytes([]byte(heatLIF), "heat.lif")
	if other.ID == r.ID {
		t.Error("Expected a fresh ID per report")
	}
}

func TestFromBytesParseError(t *testing.T) {
	_, err := NewBuilder(Options{}).FromBytes([]byte("EVT01,only,three\n"), "bad.lif")
	var perr *lif.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
	if perr.File != "bad.lif" {
		t.Errorf("Unexpected file %q", perr.File)
	}
}

func TestRasterize(t *testing.T) {
	r, err := NewBuilder(Options{Scale: 1}).FromBytes([]byte(heatLIF), "heat.lif")
	if err != nil {
		t.Fatal(err)
	}
	raster, err := r.Rasterize()
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if raster.Width != 595 || raster.Height != 842 || len(raster.Pages) != 1 {
		t.Errorf("Unexpected raster %dx%d, %d pages", raster.Width, raster.Height, len(raster.Pages))
	}

	page, err := r.RenderPage(0)
	if err != nil || page.Width != raster.Width {
		t.Errorf("RenderPage: %v", err)
	}
	var rerr *document.RenderError
	if _, err := r.RenderPage(3); !errors.As(err, &rerr) {
		t.Errorf("Expected RenderError, got %v", err)
	}
}

func TestFileNameStaysInOutputDir(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		code, source, want string
	}{
		{"EVT01", "heat.lif", "EVT01.pdf"},
		{"../../x", "heat.lif", "x.pdf"},
		{`..\..\x`, "heat.lif", "x.pdf"},
		{"", "heat.lif", "heat.pdf"},
		{"..", "/data/lif/final.lif", "final.pdf"},
		{"  ", "..", id.String() + ".pdf"},
	}
	for _, tt := range tests {
		r := &Report{ID: id, Source: tt.source, Race: &model.RaceEvent{Event: model.EventInfo{EventCode: tt.code}}}
		if got := r.FileName(); got != tt.want {
			t.Errorf("Expected %q for code %q source %q, got %q", tt.want, tt.code, tt.source, got)
		}
	}
}
