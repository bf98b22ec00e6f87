package thumbnail

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"thumbgen/internal/manifest"
)

// Paths locates thumbnails and the model files they are rendered from.
type Paths struct {
	OutputDir string
	ModelsDir string
}

// OutputFor returns the thumbnail path for part. Category plays no part in
// the name.
func (p Paths) OutputFor(part string) string {
	return filepath.Join(p.OutputDir, part+".jpg")
}

// ModelFor returns the source model path for part.
func (p Paths) ModelFor(part string) string {
	return filepath.Join(p.ModelsDir, part+".glb")
}

// PlanOptions narrow the worklist.
type PlanOptions struct {
	OnlyNew bool
	Filter  string
	Limit   int // 0 keeps everything
}

// Plan narrows items to the worklist for a run. Stages apply in a fixed
// order: freshness, then filter, then limit.
func Plan(items []manifest.WorkItem, opts PlanOptions, paths Paths) ([]manifest.WorkItem, error) {
	if opts.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", opts.Limit)
	}

	work := append([]manifest.WorkItem(nil), items...)

	if opts.OnlyNew {
		var err error
		work, err = keepStale(work, paths, os.Stat)
		if err != nil {
			return nil, err
		}
	}

	if opts.Filter != "" {
		work = filterParts(work, opts.Filter)
	}

	if opts.Limit > 0 && len(work) > opts.Limit {
		work = work[:opts.Limit]
	}
	return work, nil
}

type statFunc func(string) (fs.FileInfo, error)

// keepStale drops items whose thumbnail exists and is at least as new as
// its model.
func keepStale(items []manifest.WorkItem, paths Paths, stat statFunc) ([]manifest.WorkItem, error) {
	out := items[:0]
	for _, item := range items {
		outInfo, err := stat(paths.OutputFor(item.Part))
		if errors.Is(err, fs.ErrNotExist) {
			out = append(out, item)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat thumbnail: %w", err)
		}
		modelInfo, err := stat(paths.ModelFor(item.Part))
		if err != nil {
			return nil, fmt.Errorf("stat model: %w", err)
		}
		if modelInfo.ModTime().After(outInfo.ModTime()) {
			out = append(out, item)
		}
	}
	return out, nil
}

func filterParts(items []manifest.WorkItem, filter string) []manifest.WorkItem {
	fold := cases.Fold()
	needle := fold.String(filter)
	out := items[:0]
	for _, item := range items {
		if strings.Contains(fold.String(item.Part), needle) {
			out = append(out, item)
		}
	}
	return out
}
