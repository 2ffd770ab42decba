package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/b2tsrl/openwhispr/internal/common/fsutil"
	"github.com/b2tsrl/openwhispr/pkg/types"
)

// Scanner discovers whisper ggml model files in a directory.
type Scanner struct{}

// NewScanner returns a Scanner for ggml *.bin model files.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan lists the model files in dir, sorted by ID. The ID is the file
// name without its extension (e.g. "ggml-base.en"); Path is absolute.
// Non-model files are skipped.
func (s *Scanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".bin") {
			continue
		}
		// Zero-byte files are interrupted downloads, not models.
		info, err := e.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		models = append(models, types.Model{
			ID:     id,
			Name:   humanName(id),
			Path:   filepath.Join(abs, name),
			SizeMB: info.Size() / (1024 * 1024),
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// LoadDir scans dir with a default Scanner.
func LoadDir(dir string) ([]types.Model, error) {
	return NewScanner().Scan(dir)
}

// sizeClassNames maps the whisper.cpp size-class tokens to display
// names.
var sizeClassNames = map[string]string{
	"tiny":   "Tiny",
	"base":   "Base",
	"small":  "Small",
	"medium": "Medium",
	"large":  "Large",
	"turbo":  "Turbo",
}

// humanName derives a display name from a model ID such as
// "ggml-base.en" -> "Base (English)" or "ggml-large-v3" -> "Large v3".
// Unknown shapes fall back to the raw ID.
func humanName(id string) string {
	rest, ok := strings.CutPrefix(id, "ggml-")
	if !ok {
		return id
	}
	english := false
	if r, cut := strings.CutSuffix(rest, ".en"); cut {
		english = true
		rest = r
	}
	parts := strings.SplitN(rest, "-", 2)
	name, known := sizeClassNames[parts[0]]
	if !known {
		return id
	}
	if len(parts) == 2 {
		name += " " + parts[1]
	}
	if english {
		name += " (English)"
	}
	return name
}
