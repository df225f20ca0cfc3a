package charts

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vehicle-dashboard/models"
	"vehicle-dashboard/utils"
)

// Exporter writes every chart of a dashboard to PNG files.
type Exporter struct {
	renderer *Renderer
	workers  int
	logger   *utils.Logger
}

// NewExporter creates an Exporter rendering up to workers charts at once.
func NewExporter(renderer *Renderer, workers int, logger *utils.Logger) *Exporter {
	return &Exporter{renderer: renderer, workers: workers, logger: logger}
}

// ExportAll writes <branch id>.png into dir for each charted branch and
// returns the written paths in branch order. Branches with no data are
// skipped.
func (e *Exporter) ExportAll(dir string, d *models.Dashboard, rs *models.RecordSet) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("charts: create output dir: %w", err)
	}

	pool := utils.NewWorkerPool(e.workers)
	paths := make([]string, len(d.Branches))
	for i := range d.Branches {
		b := &d.Branches[i]
		if b.Chart == nil {
			continue
		}
		path := filepath.Join(dir, b.ID+".png")
		idx := i
		pool.Submit(func() error {
			err := e.writeFile(path, b, rs)
			if errors.Is(err, ErrNoData) {
				e.logger.Warn("[charts] Skipping %s: no data", b.ID)
				return nil
			}
			if err != nil {
				return err
			}
			paths[idx] = path
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			written = append(written, p)
		}
	}
	return written, nil
}

func (e *Exporter) writeFile(path string, b *models.Branch, rs *models.RecordSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("charts: create %q: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if err := e.renderer.RenderPNG(w, b, rs); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("charts: write %q: %w", path, err)
	}
	return f.Close()
}
