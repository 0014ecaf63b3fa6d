package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/cnc-toolpath/internal/model"
)

func TestExportPreviewCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.dxf")

	if err := ExportPreview(path, buildTestJob()); err != nil {
		t.Fatalf("ExportPreview failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output file not created: %v", err)
	}
	text := string(data)

	// Stock rectangle plus one polyline per pass.
	if got := strings.Count(text, "LWPOLYLINE"); got != 4 {
		t.Errorf("found %d LWPOLYLINE entities, want 4", got)
	}
	for _, layer := range []string{layerStock, layerCuts, layerLinks, layerRapids} {
		if !strings.Contains(text, layer) {
			t.Errorf("layer %s missing from drawing", layer)
		}
	}
}

func TestExportPreviewSkipsShortPasses(t *testing.T) {
	job := buildTestJob()
	job.Toolpath.Passes = append(job.Toolpath.Passes, model.Polyline{
		Pts:          []model.Vec3{{X: 1, Y: 1, Z: 0}},
		Motion:       model.MotionCut,
		StrategyStep: -1,
	})

	path := filepath.Join(t.TempDir(), "preview.dxf")
	if err := ExportPreview(path, job); err != nil {
		t.Fatalf("ExportPreview failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output file not created: %v", err)
	}
	if got := strings.Count(string(data), "LWPOLYLINE"); got != 4 {
		t.Errorf("found %d LWPOLYLINE entities, want 4", got)
	}
}

func TestExportPreviewEmptyToolpath(t *testing.T) {
	job := buildTestJob()
	job.Toolpath = model.Toolpath{}

	err := ExportPreview(filepath.Join(t.TempDir(), "preview.dxf"), job)
	if err == nil {
		t.Fatal("expected error for empty toolpath")
	}
	if !strings.Contains(err.Error(), "no toolpath") {
		t.Errorf("unexpected error: %v", err)
	}
}
