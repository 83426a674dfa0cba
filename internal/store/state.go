package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileState records the outcome of the last attempt at one file.
type FileState struct {
	Path        string    `json:"path"`
	ModTime     time.Time `json:"mod_time"`
	EventCode   string    `json:"event_code,omitempty"`
	ReportID    string    `json:"report_id,omitempty"`
	Flags       int       `json:"flags"`
	Pages       int       `json:"pages"`
	Error       string    `json:"error,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

type RunState struct {
	LastRun time.Time            `json:"last_run"`
	Files   map[string]FileState `json:"files"`
}

func NewRunState() RunState {
	return RunState{Files: make(map[string]FileState)}
}

// Record stores fs under its path, replacing any earlier attempt.
func (s *RunState) Record(f FileState) {
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	s.Files[f.Path] = f
}

// Seed marks every successfully processed file version in d.
func (s RunState) Seed(d *Dedup) int {
	n := 0
	for _, f := range s.Files {
		if f.Error != "" {
			continue
		}
		d.Mark(FileKey(f.Path, f.ModTime))
		n++
	}
	return n
}

// LoadRunState reads the state file. A missing file yields an empty state.
func LoadRunState(path string) (RunState, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewRunState(), nil
	}
	if err != nil {
		return NewRunState(), err
	}
	s := NewRunState()
	if err := json.Unmarshal(b, &s); err != nil {
		return NewRunState(), err
	}
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	return s, nil
}

func SaveRunState(path string, s RunState) error {
	b, err := json.MarshalIndent(s, "", " ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0644)
}
