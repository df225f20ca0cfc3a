package charts

import (
	"bytes"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vehicle-dashboard/models"
	"vehicle-dashboard/services"
	"vehicle-dashboard/utils"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleSet() *models.RecordSet {
	rows := []struct {
		odo, price float64
		cond       string
	}{
		{145000, 9400, "good"},
		{88705, 25500, "good"},
		{110000, 5500, "like new"},
		{62000, 14900, "excellent"},
		{79212, 12990, ""},
	}
	rs := &models.RecordSet{Columns: []string{"price", "odometer", "condition"}}
	for _, r := range rows {
		rs.Vehicles = append(rs.Vehicles, &models.Vehicle{
			Price:     sql.NullFloat64{Float64: r.price, Valid: true},
			Odometer:  sql.NullFloat64{Float64: r.odo, Valid: true},
			Condition: r.cond,
		})
	}
	return rs
}

func render(t *testing.T, rs *models.RecordSet, id string) (*models.Branch, []byte, error) {
	t.Helper()
	svc := services.NewDashboardService(utils.Discard())
	b, ok, err := svc.RenderBranch(rs, id)
	if err != nil || !ok {
		t.Fatalf("RenderBranch(%s): ok=%t err=%v", id, ok, err)
	}
	var buf bytes.Buffer
	err = NewRenderer().RenderPNG(&buf, b, rs)
	return b, buf.Bytes(), err
}

func TestRenderChartsAsPNG(t *testing.T) {
	for _, id := range []string{
		models.BranchOdometerHistogram,
		models.BranchPriceHistogram,
		models.BranchOdometerPriceScatter,
		models.BranchConditionScatter,
	} {
		t.Run(id, func(t *testing.T) {
			_, img, err := render(t, sampleSet(), id)
			if err != nil {
				t.Fatalf("RenderPNG: %v", err)
			}
			if !bytes.HasPrefix(img, pngMagic) {
				t.Errorf("output is not a PNG (%d bytes)", len(img))
			}
		})
	}
}

func TestRenderSinglePoint(t *testing.T) {
	rs := sampleSet()
	rs.Vehicles = rs.Vehicles[:1]
	_, img, err := render(t, rs, models.BranchOdometerPriceScatter)
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Error("output is not a PNG")
	}
}

func TestRenderNoData(t *testing.T) {
	rs := &models.RecordSet{Columns: []string{"price", "odometer", "condition"}}
	for _, id := range []string{models.BranchPriceHistogram, models.BranchOdometerPriceScatter} {
		if _, _, err := render(t, rs, id); !errors.Is(err, ErrNoData) {
			t.Errorf("%s: expected ErrNoData, got %v", id, err)
		}
	}
}

func TestRenderRejectsChartlessBranch(t *testing.T) {
	_, _, err := render(t, sampleSet(), models.BranchRawPreview)
	if err == nil {
		t.Error("expected an error for the raw preview branch")
	}
}

func TestPaletteColorCycles(t *testing.T) {
	if PaletteColor(0) != "#636EFA" || PaletteColor(len(palette)) != "#636EFA" {
		t.Errorf("unexpected palette colors: %s, %s", PaletteColor(0), PaletteColor(len(palette)))
	}
}

func TestExportAll(t *testing.T) {
	rs := sampleSet()
	d, err := services.NewDashboardService(utils.Discard()).Render(rs, models.AllViews())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "charts")
	paths, err := NewExporter(NewRenderer(), 2, utils.Discard()).ExportAll(dir, d, rs)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("written: got %d files, want 4", len(paths))
	}
	if filepath.Base(paths[0]) != models.BranchOdometerHistogram+".png" {
		t.Errorf("first file: got %s", paths[0])
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		if !bytes.HasPrefix(data, pngMagic) {
			t.Errorf("%s is not a PNG", p)
		}
	}
}
