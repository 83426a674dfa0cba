package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"lifsheet/internal/config"
)

// ErrNotFound is returned by Find when no search path holds the file.
var ErrNotFound = errors.New("file not found")

// File is one LIF file found in a search path.
type File struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

type Source interface {
	Name() string
	List(ctx context.Context) ([]File, error)
	Read(ctx context.Context, f File) ([]byte, error)
}

func NewFromConfig(c *config.Config) Source {
	return NewDir(c.SearchPaths, c.Filter)
}

// Dir scans a fixed set of directories, non-recursively.
type Dir struct {
	paths  []string
	filter string
}

func NewDir(paths []string, filter string) *Dir {
	return &Dir{paths: paths, filter: filter}
}

func (d *Dir) Name() string { return "dir" }

func (d *Dir) Paths() []string { return d.paths }

// List returns the LIF files matching the configured filter, newest first.
func (d *Dir) List(ctx context.Context) ([]File, error) {
	return d.Matching(ctx, d.filter)
}

// Matching lists LIF files whose name contains filter, newest first.
// Directories that cannot be read are logged and skipped.
func (d *Dir) Matching(ctx context.Context, filter string) ([]File, error) {
	var out []File
	for _, dir := range d.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Warnf("skip search path %s: %v", dir, err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !isLIF(e.Name()) || !matchesFilter(e.Name(), filter) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				log.Debugf("skip %s: %v", e.Name(), err)
				continue
			}
			out = append(out, File{
				Name:    e.Name(),
				Path:    filepath.Join(dir, e.Name()),
				ModTime: info.ModTime(),
				Size:    info.Size(),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

// Find locates name in the search paths, first path wins.
func (d *Dir) Find(name string) (File, error) {
	if name == "" || name != filepath.Base(name) {
		return File{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	for _, dir := range d.paths {
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		return File{Name: name, Path: p, ModTime: info.ModTime(), Size: info.Size()}, nil
	}
	return File{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

func (d *Dir) Read(ctx context.Context, f File) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return b, nil
}
