package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/table"

	"github.com/piwi3910/cnc-toolpath/internal/model"
)

// Layer names of the DXF preview.
const (
	layerStock  = "STOCK"
	layerCuts   = "CUTS"
	layerLinks  = "LINKS"
	layerRapids = "RAPIDS"
)

// ExportPreview writes a top-view DXF of the toolpath for inspection
// in CAD: the stock outline on its own layer and one layer per motion
// type, so cuts, links and rapids can be toggled independently.
func ExportPreview(path string, job JobSummary) error {
	if job.Toolpath.Empty() {
		return fmt.Errorf("no toolpath to export")
	}

	d := dxf.NewDrawing()

	layers := []struct {
		name string
		cl   color.ColorNumber
	}{
		{layerStock, color.Yellow},
		{layerCuts, color.White},
		{layerLinks, color.Cyan},
		{layerRapids, color.Red},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.cl, table.LT_CONTINUOUS, false); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", l.name, err)
		}
	}

	if err := drawStockOutline(d, job); err != nil {
		return err
	}

	for i, pass := range job.Toolpath.Passes {
		if len(pass.Pts) < 2 {
			continue
		}
		if err := d.ChangeLayer(motionLayer(pass.Motion)); err != nil {
			return fmt.Errorf("failed to switch layer: %w", err)
		}
		verts := make([][]float64, len(pass.Pts))
		for j, p := range pass.Pts {
			verts[j] = []float64{p.X, p.Y}
		}
		if _, err := d.LwPolyline(false, verts...); err != nil {
			return fmt.Errorf("failed to draw pass %d: %w", i+1, err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write preview %s: %w", path, err)
	}
	return nil
}

// drawStockOutline draws the stock footprint as a closed polyline.
func drawStockOutline(d *drawing.Drawing, job JobSummary) error {
	minX, minY, maxX, maxY := job.previewBounds()

	if err := d.ChangeLayer(layerStock); err != nil {
		return fmt.Errorf("failed to switch layer: %w", err)
	}
	_, err := d.LwPolyline(true,
		[]float64{minX, minY},
		[]float64{maxX, minY},
		[]float64{maxX, maxY},
		[]float64{minX, maxY})
	if err != nil {
		return fmt.Errorf("failed to draw stock outline: %w", err)
	}
	return nil
}

// motionLayer maps a motion type to its preview layer.
func motionLayer(motion model.MotionType) string {
	switch motion {
	case model.MotionLink:
		return layerLinks
	case model.MotionRapid:
		return layerRapids
	default:
		return layerCuts
	}
}
