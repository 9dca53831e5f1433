package imageio

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/vearutop/texblend"
)

// DefaultOutputName is used when a task name sanitizes to nothing.
const DefaultOutputName = "blended_normal"

// LayerSpec describes a layer file and its blend parameters.
type LayerSpec struct {
	Path    string
	Weight  float64
	Mode    texblend.BlendMode
	Enabled bool
}

// LoadTask decodes every enabled layer file and assembles a task.
//
// Files that fail to decode still become layers, with a nil source, so that composition skips
// them and reports a warning. Decode errors are returned alongside the task for the caller to log.
// Disabled layers are not decoded.
func LoadTask(name string, specs []LayerSpec) (*texblend.Task, []error) {
	task := texblend.NewTask(name)
	var errs []error
	for _, s := range specs {
		l := texblend.NewLayer(s.Path, nil).
			SetWeight(s.Weight).
			SetMode(s.Mode).
			SetEnabled(s.Enabled)
		if s.Enabled {
			buf, err := Load(s.Path)
			if err != nil {
				errs = append(errs, err)
			} else {
				l.Source = buf
			}
		}
		task.Add(l)
	}
	return task, errs
}

// OutputName turns a task display name into a safe file name with the given extension.
// Path separators, control characters and characters reserved on common file systems become
// underscores. An empty result falls back to DefaultOutputName.
func OutputName(taskName string, ext string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(taskName) {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r), unicode.IsControl(r):
			sb.WriteRune('_')
		case unicode.IsSpace(r):
			sb.WriteRune('_')
		default:
			sb.WriteRune(r)
		}
	}
	name := strings.Trim(sb.String(), "._")
	if name == "" {
		name = DefaultOutputName
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Base(name) + ext
}
