package buildpipeline

import (
	"path/filepath"
	"strings"
	"time"
)

func (r *Request) send(ev Event) {
	if r.Progress != nil {
		r.Progress.OnEvent(ev)
	}
}

// report sends the status of one unit.
func (r *Request) report(file string, stage Stage, status Status, err error, elapsed time.Duration) {
	r.send(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

// reportAll sends a build-wide event and then the same status for every unit.
func (r *Request) reportAll(files []string, stage Stage, status Status) {
	r.send(Event{Stage: stage, Status: status})
	for _, file := range files {
		r.report(file, stage, status, nil, 0)
	}
}

// DisplayNames shortens inputs for progress output. Paths under baseDir
// become relative and all use forward slashes. Order is kept.
func DisplayNames(inputs []string, baseDir string) []string {
	base := ""
	if strings.TrimSpace(baseDir) != "" {
		base, _ = filepath.Abs(baseDir)
	}
	out := make([]string, len(inputs))
	for i, in := range inputs {
		out[i] = filepath.ToSlash(underBase(filepath.Clean(in), base))
	}
	return out
}

func underBase(path, base string) string {
	if base == "" {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return rel
}
