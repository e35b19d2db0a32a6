package workflow

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/twpayne/go-rastergrid"
)

// A Runner executes workflows. Rasters and feature sets produced by one step
// are available by name to later steps.
type Runner struct {
	toolbox   *rastergrid.Toolbox
	logger    *zap.Logger
	overwrite bool
	rasters   map[string]*rastergrid.Raster
	features  map[string]*rastergrid.FeatureSet
}

// A RunnerOption sets an option on a Runner.
type RunnerOption func(*Runner)

// NewRunner returns a new Runner that uses toolbox.
func NewRunner(toolbox *rastergrid.Toolbox, options ...RunnerOption) *Runner {
	r := &Runner{
		toolbox:   toolbox,
		logger:    zap.NewNop(),
		overwrite: true,
		rasters:   make(map[string]*rastergrid.Raster),
		features:  make(map[string]*rastergrid.FeatureSet),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithOverwrite sets whether write steps may replace existing files.
func WithOverwrite(overwrite bool) RunnerOption {
	return func(r *Runner) {
		r.overwrite = overwrite
	}
}

// Raster returns the raster called name.
func (r *Runner) Raster(name string) (*rastergrid.Raster, bool) {
	raster, ok := r.rasters[name]
	return raster, ok
}

// Features returns the feature set called name.
func (r *Runner) Features(name string) (*rastergrid.FeatureSet, bool) {
	featureSet, ok := r.features[name]
	return featureSet, ok
}

// Run executes the steps of wf in order, stopping at the first failure or
// when ctx is done.
func (r *Runner) Run(ctx context.Context, wf *Workflow) error {
	for i, step := range wf.Steps {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "workflow: context cancelled")
		}
		r.logger.Info("workflow: step",
			zap.Int("index", i+1),
			zap.String("name", step.label()),
			zap.String("op", step.Op),
		)
		if err := r.runStep(wf, &step); err != nil {
			return eris.Wrapf(err, "workflow: step %d (%s)", i+1, step.label())
		}
	}
	return nil
}

func (r *Runner) runStep(wf *Workflow, step *Step) error {
	switch step.Op {
	case OpReadGeoTIFF:
		return r.readGeoTIFF(wf, step)
	case OpReadPoints:
		return r.readPoints(wf, step)
	case OpReadShapefile:
		return r.readShapefile(wf, step)
	case OpSubstitute:
		return r.substitute(wf, step)
	case OpTrim:
		return r.trim(step)
	case OpCrop:
		return r.crop(step)
	case OpReproject:
		return r.reproject(step)
	case OpRasterize:
		return r.rasterize(step)
	case OpMask:
		return r.mask(step)
	case OpWrite:
		return r.write(wf, step)
	default:
		return eris.Errorf("unknown op %q", step.Op)
	}
}

func (r *Runner) path(wf *Workflow, path string) string {
	if filepath.IsAbs(path) || wf.dir == "" {
		return path
	}
	return filepath.Join(wf.dir, path)
}

func (r *Runner) raster(name string) (*rastergrid.Raster, error) {
	raster, ok := r.rasters[name]
	if !ok {
		return nil, eris.Errorf("unknown raster %q", name)
	}
	return raster, nil
}

func (r *Runner) featureSet(name string) (*rastergrid.FeatureSet, error) {
	featureSet, ok := r.features[name]
	if !ok {
		return nil, eris.Errorf("unknown features %q", name)
	}
	return featureSet, nil
}

func (r *Runner) setRaster(name string, raster *rastergrid.Raster) {
	summary := raster.Summary()
	r.logger.Debug("workflow: raster",
		zap.String("name", name),
		zap.Stringer("grid", raster.Grid()),
		zap.Int("data_cells", summary.DataCells),
	)
	r.rasters[name] = raster
}

func (r *Runner) readGeoTIFF(wf *Workflow, step *Step) error {
	path := r.path(wf, step.Path)
	rasters, err := rastergrid.ReadGeoTIFF(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return err
	}
	band := max(step.Band, 1)
	if band > len(rasters) {
		return eris.Errorf("%s: band %d out of range, file has %d bands", path, band, len(rasters))
	}
	raster := rasters[band-1]
	if step.CRS != "" {
		raster = raster.WithCRS(rastergrid.CRS(step.CRS))
	}
	r.setRaster(step.Output, raster)
	return nil
}

func (r *Runner) readPoints(wf *Workflow, step *Step) error {
	path := r.path(wf, step.Path)
	file, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "open %s", path)
	}
	defer file.Close()
	raster, err := rastergrid.ReadPointsCSV(file, rastergrid.CRS(step.CRS))
	if err != nil {
		return eris.Wrapf(err, "%s", path)
	}
	r.setRaster(step.Output, raster)
	return nil
}

func (r *Runner) readShapefile(wf *Workflow, step *Step) error {
	featureSet, err := rastergrid.ReadShapefile(r.path(wf, step.Path))
	if err != nil {
		return err
	}
	if step.CRS != "" {
		featureSet.CRS = rastergrid.CRS(step.CRS).Normalize()
	}
	r.logger.Debug("workflow: features",
		zap.String("name", step.Output),
		zap.Int("features", featureSet.Len()),
		zap.Strings("fields", featureSet.Fields),
	)
	r.features[step.Output] = featureSet
	return nil
}

func (r *Runner) substitute(wf *Workflow, step *Step) error {
	raster, err := r.raster(step.Input)
	if err != nil {
		return err
	}
	path := r.path(wf, step.Path)
	file, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "open %s", path)
	}
	defer file.Close()
	table, err := rastergrid.ReadLookupTable[int64](file, step.KeyColumn, step.ValueColumn)
	if err != nil {
		return eris.Wrapf(err, "%s", path)
	}
	result, stats := rastergrid.SubstituteWithStats(raster, table)
	r.logger.Info("workflow: substitute",
		zap.Int("matched", stats.Matched),
		zap.Int("unmatched", stats.Unmatched),
		zap.Int("no_data", stats.NoData),
	)
	r.setRaster(step.Output, result)
	return nil
}

func (r *Runner) trim(step *Step) error {
	raster, err := r.raster(step.Input)
	if err != nil {
		return err
	}
	result, err := rastergrid.Trim(raster)
	if err != nil {
		return err
	}
	r.setRaster(step.Output, result)
	return nil
}

func (r *Runner) crop(step *Step) error {
	raster, err := r.raster(step.Input)
	if err != nil {
		return err
	}
	var result *rastergrid.Raster
	if step.Template != "" {
		template, err := r.raster(step.Template)
		if err != nil {
			return err
		}
		result, err = rastergrid.CropTo(raster, template.Grid())
		if err != nil {
			return err
		}
	} else {
		result, err = rastergrid.Crop(raster, step.Extent.Extent())
		if err != nil {
			return err
		}
	}
	r.setRaster(step.Output, result)
	return nil
}

func (r *Runner) reproject(step *Step) error {
	raster, err := r.raster(step.Input)
	if err != nil {
		return err
	}
	method := rastergrid.Nearest
	if step.Method != "" {
		if method, err = rastergrid.ParseResampling(step.Method); err != nil {
			return err
		}
	}
	var result *rastergrid.Raster
	if step.Template != "" {
		template, err := r.raster(step.Template)
		if err != nil {
			return err
		}
		result, err = r.toolbox.Reproject(raster, template.Grid(), method)
		if err != nil {
			return err
		}
	} else {
		resolution := rastergrid.Resolution{X: *step.Resolution, Y: *step.Resolution}
		result, err = r.toolbox.ProjectTo(raster, rastergrid.CRS(step.CRS), resolution, method)
		if err != nil {
			return err
		}
	}
	r.setRaster(step.Output, result)
	return nil
}

func (r *Runner) rasterize(step *Step) error {
	featureSet, err := r.featureSet(step.Features)
	if err != nil {
		return err
	}
	template, err := r.raster(step.Template)
	if err != nil {
		return err
	}
	result, err := r.toolbox.Rasterize(featureSet, template.Grid(), step.Attribute)
	if err != nil {
		return err
	}
	r.setRaster(step.Output, result)
	return nil
}

func (r *Runner) mask(step *Step) error {
	raster, err := r.raster(step.Input)
	if err != nil {
		return err
	}
	var options []rastergrid.MaskOption
	if step.MaskValue != nil {
		options = append(options, rastergrid.WithMaskValue(*step.MaskValue))
	}
	if step.Inverse {
		options = append(options, rastergrid.WithInverse())
	}
	if step.UpdateValue != nil {
		options = append(options, rastergrid.WithUpdateValue(*step.UpdateValue))
	}
	var result *rastergrid.Raster
	if step.Mask != "" {
		mask, err := r.raster(step.Mask)
		if err != nil {
			return err
		}
		result, err = rastergrid.Mask(raster, mask, options...)
		if err != nil {
			return err
		}
	} else {
		featureSet, err := r.featureSet(step.Features)
		if err != nil {
			return err
		}
		result, err = r.toolbox.MaskFeatures(raster, featureSet, options...)
		if err != nil {
			return err
		}
	}
	r.setRaster(step.Output, result)
	return nil
}

func (r *Runner) write(wf *Workflow, step *Step) error {
	names := step.Inputs
	if step.Input != "" {
		names = append([]string{step.Input}, names...)
	}
	rasters := make([]*rastergrid.Raster, 0, len(names))
	for _, name := range names {
		raster, err := r.raster(name)
		if err != nil {
			return err
		}
		rasters = append(rasters, raster)
	}
	path := r.path(wf, step.Path)
	if !r.overwrite {
		switch _, err := os.Stat(path); {
		case err == nil:
			return eris.Wrapf(fs.ErrExist, "%s", path)
		case !errors.Is(err, fs.ErrNotExist):
			return eris.Wrapf(err, "stat %s", path)
		}
	}
	return r.toolbox.WriteGeoTIFF(path, rasters...)
}
