package source

import (
	"path/filepath"
	"strings"
)

const lifExt = ".lif"

// isLIF matches the extension case-insensitively.
func isLIF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), lifExt)
}

func matchesFilter(name, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	return strings.Contains(name, filter)
}
