package heightfield

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/cnc-toolpath/internal/logger"
)

// MinFieldStep is the smallest allowed raster step in mm.
const MinFieldStep = 0.05

// BuildStats summarizes one raster build.
type BuildStats struct {
	Rows         int
	Cols         int
	ValidSamples int
	Duration     time.Duration
}

// Field is a sampled height raster over a grid index. Samples without
// surface coverage hold NaN and a cleared coverage flag.
type Field struct {
	minX, minY float64
	step       float64
	cols, rows int
	samples    []float64
	coverage   []bool
	valid      bool
}

// FieldOption adjusts raster construction.
type FieldOption func(*fieldConfig)

type fieldConfig struct {
	workers int
	log     *zap.Logger
}

// WithFieldWorkers overrides the worker count used for the build.
// Values below 1 keep the default of one worker per CPU.
func WithFieldWorkers(n int) FieldOption {
	return func(c *fieldConfig) {
		c.workers = n
	}
}

// WithFieldLogger routes the build summary to a specific logger instead
// of the process default.
func WithFieldLogger(log *zap.Logger) FieldOption {
	return func(c *fieldConfig) {
		if log != nil {
			c.log = log
		}
	}
}

type rowRange struct {
	begin, end int
}

// BuildField samples the grid on a regular raster with the given step,
// clamped to MinFieldStep. Rows are processed in chunks across workers;
// cancelling the context abandons the build and returns the context
// error.
func BuildField(ctx context.Context, grid *Grid, step float64, opts ...FieldOption) (*Field, BuildStats, error) {
	cfg := fieldConfig{log: logger.Log}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &Field{step: math.Max(MinFieldStep, step)}
	f.minX, f.minY, _, _ = grid.Bounds()

	_, _, maxX, maxY := grid.Bounds()
	extentX := math.Max(maxX-f.minX, f.step)
	extentY := math.Max(maxY-f.minY, f.step)

	f.cols = max(1, int(math.Ceil(extentX/f.step)))
	f.rows = max(1, int(math.Ceil(extentY/f.step)))

	f.samples = make([]float64, f.cols*f.rows)
	for i := range f.samples {
		f.samples[i] = math.NaN()
	}
	f.coverage = make([]bool, f.cols*f.rows)

	workers := cfg.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > f.rows {
		workers = f.rows
	}

	baseChunk := 1
	if f.rows >= workers {
		baseChunk = max(1, f.rows/(workers*4))
	}
	chunkSize := max(16, baseChunk)

	var chunks []rowRange
	for row := 0; row < f.rows; row += chunkSize {
		chunks = append(chunks, rowRange{begin: row, end: min(f.rows, row+chunkSize)})
	}

	start := time.Now()
	var validCount atomic.Int64

	sampleRows := func(r rowRange) {
		local := 0
		for row := r.begin; row < r.end; row++ {
			select {
			case <-ctx.Done():
				validCount.Add(int64(local))
				return
			default:
			}

			y := f.minY + float64(row)*f.step
			rowOffset := row * f.cols
			for col := 0; col < f.cols; col++ {
				x := f.minX + float64(col)*f.step
				if z, ok := grid.MaxZAt(x, y); ok {
					f.samples[rowOffset+col] = z
					f.coverage[rowOffset+col] = true
					local++
				}
			}
		}
		validCount.Add(int64(local))
	}

	if workers > 1 && len(chunks) > 1 {
		work := make(chan rowRange)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for r := range work {
					sampleRows(r)
				}
			}()
		}
		for _, r := range chunks {
			work <- r
		}
		close(work)
		wg.Wait()
	} else {
		for _, r := range chunks {
			if ctx.Err() != nil {
				break
			}
			sampleRows(r)
		}
	}

	elapsed := time.Since(start)
	stats := BuildStats{
		Rows:         f.rows,
		Cols:         f.cols,
		ValidSamples: int(validCount.Load()),
		Duration:     elapsed,
	}

	if err := ctx.Err(); err != nil {
		cfg.log.Info("height field build cancelled",
			zap.Int("columns", f.cols),
			zap.Int("rows", f.rows),
			zap.Int("valid_samples", stats.ValidSamples),
			zap.Duration("elapsed", elapsed),
		)
		return nil, stats, err
	}

	total := f.cols * f.rows
	coveragePct := 0.0
	if total > 0 {
		coveragePct = float64(stats.ValidSamples) / float64(total) * 100.0
	}
	cfg.log.Info("height field built",
		zap.Int("columns", f.cols),
		zap.Int("rows", f.rows),
		zap.Float64("step_mm", f.step),
		zap.Int("workers", workers),
		zap.Int("valid_samples", stats.ValidSamples),
		zap.Float64("coverage_pct", coveragePct),
		zap.Duration("elapsed", elapsed),
	)

	f.valid = true
	return f, stats, nil
}

// Valid reports whether the field finished building.
func (f *Field) Valid() bool {
	return f.valid
}

// Columns returns the sample count along X.
func (f *Field) Columns() int {
	return f.cols
}

// Rows returns the sample count along Y.
func (f *Field) Rows() int {
	return f.rows
}

// Step returns the raster step in mm.
func (f *Field) Step() float64 {
	return f.step
}

// Origin returns the XY position of sample (0, 0).
func (f *Field) Origin() (x, y float64) {
	return f.minX, f.minY
}

// SampleAt returns the stored height at (col, row), or false when the
// sample is out of range or uncovered.
func (f *Field) SampleAt(col, row int) (float64, bool) {
	if !f.valid || col < 0 || col >= f.cols || row < 0 || row >= f.rows {
		return 0, false
	}
	z := f.samples[row*f.cols+col]
	if math.IsNaN(z) {
		return 0, false
	}
	return z, true
}

// HasSample reports whether (col, row) holds a covered sample.
func (f *Field) HasSample(col, row int) bool {
	if !f.valid || col < 0 || col >= f.cols || row < 0 || row >= f.rows {
		return false
	}
	return f.coverage[row*f.cols+col]
}

// Interpolate returns the bilinear height at (x, y). All four
// surrounding samples must be covered; on the far edges the nearest
// single sample is used instead.
func (f *Field) Interpolate(x, y float64) (float64, bool) {
	if !f.valid {
		return 0, false
	}

	if x < f.minX-epsilon || x > f.minX+f.step*float64(f.cols-1)+epsilon ||
		y < f.minY-epsilon || y > f.minY+f.step*float64(f.rows-1)+epsilon {
		return 0, false
	}

	fx := math.Min(math.Max((x-f.minX)/f.step, 0), float64(f.cols-1))
	fy := math.Min(math.Max((y-f.minY)/f.step, 0), float64(f.rows-1))

	ix := int(math.Floor(fx))
	iy := int(math.Floor(fy))

	if ix >= f.cols-1 || iy >= f.rows-1 {
		return f.SampleAt(ix, iy)
	}

	localX := fx - float64(ix)
	localY := fy - float64(iy)

	z00, ok00 := f.SampleAt(ix, iy)
	z10, ok10 := f.SampleAt(ix+1, iy)
	z01, ok01 := f.SampleAt(ix, iy+1)
	z11, ok11 := f.SampleAt(ix+1, iy+1)
	if !ok00 || !ok10 || !ok01 || !ok11 {
		return 0, false
	}

	z0 := z00*(1.0-localX) + z10*localX
	z1 := z01*(1.0-localX) + z11*localX
	return z0*(1.0-localY) + z1*localY, true
}
