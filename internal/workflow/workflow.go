package workflow

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/twpayne/go-rastergrid"
)

// Step operations.
const (
	OpReadGeoTIFF   = "read_geotiff"
	OpReadPoints    = "read_points"
	OpReadShapefile = "read_shapefile"
	OpSubstitute    = "substitute"
	OpTrim          = "trim"
	OpCrop          = "crop"
	OpReproject     = "reproject"
	OpRasterize     = "rasterize"
	OpMask          = "mask"
	OpWrite         = "write"
)

// Workflow is a sequence of steps operating on named rasters and feature
// sets.
type Workflow struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`

	// dir is the directory against which relative paths are resolved.
	dir string
}

// Step is a single operation. Which fields are used depends on Op.
type Step struct {
	Name        string        `yaml:"name"`
	Op          string        `yaml:"op"`
	Input       string        `yaml:"input,omitempty"`
	Inputs      []string      `yaml:"inputs,omitempty"`
	Output      string        `yaml:"output,omitempty"`
	Path        string        `yaml:"path,omitempty"`
	CRS         string        `yaml:"crs,omitempty"`
	Band        int           `yaml:"band,omitempty"`
	KeyColumn   string        `yaml:"key_column,omitempty"`
	ValueColumn string        `yaml:"value_column,omitempty"`
	Extent      *ExtentConfig `yaml:"extent,omitempty"`
	Template    string        `yaml:"template,omitempty"`
	Resolution  *float64      `yaml:"resolution,omitempty"`
	Method      string        `yaml:"method,omitempty"`
	Features    string        `yaml:"features,omitempty"`
	Attribute   string        `yaml:"attribute,omitempty"`
	Mask        string        `yaml:"mask,omitempty"`
	MaskValue   *float64      `yaml:"mask_value,omitempty"`
	UpdateValue *float64      `yaml:"update_value,omitempty"`
	Inverse     bool          `yaml:"inverse,omitempty"`
}

// ExtentConfig is an extent in a workflow file.
type ExtentConfig struct {
	XMin float64 `yaml:"xmin"`
	XMax float64 `yaml:"xmax"`
	YMin float64 `yaml:"ymin"`
	YMax float64 `yaml:"ymax"`
}

// Extent returns e as a rastergrid.Extent.
func (e *ExtentConfig) Extent() rastergrid.Extent {
	return rastergrid.Extent{
		XMin: e.XMin,
		XMax: e.XMax,
		YMin: e.YMin,
		YMax: e.YMax,
	}
}

// Load reads a workflow from the YAML file at path. Relative paths in the
// workflow are resolved against the directory containing path.
func Load(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "workflow: read %s", path)
	}
	wf, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "workflow: %s", path)
	}
	wf.dir = filepath.Dir(path)
	return wf, nil
}

// Parse parses a workflow from YAML. Unknown fields are rejected.
func Parse(data []byte) (*Workflow, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var wf Workflow
	if err := decoder.Decode(&wf); err != nil {
		return nil, eris.Wrap(err, "workflow: parse")
	}
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return &wf, nil
}

// Validate checks that every step names a known operation and has the fields
// that the operation requires.
func (wf *Workflow) Validate() error {
	if len(wf.Steps) == 0 {
		return eris.New("workflow: no steps")
	}
	for i, step := range wf.Steps {
		if err := step.validate(); err != nil {
			return eris.Wrapf(err, "workflow: step %d (%s)", i+1, step.label())
		}
	}
	return nil
}

func (s *Step) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Op
}

type requirement struct {
	name string
	ok   bool
}

func (s *Step) validate() error {
	require := func(fields ...requirement) error {
		for _, field := range fields {
			if !field.ok {
				return eris.Errorf("missing %s", field.name)
			}
		}
		return nil
	}
	switch s.Op {
	case OpReadGeoTIFF, OpReadPoints, OpReadShapefile:
		return require(requirement{"path", s.Path != ""}, requirement{"output", s.Output != ""})
	case OpSubstitute:
		return require(
			requirement{"input", s.Input != ""},
			requirement{"output", s.Output != ""},
			requirement{"path", s.Path != ""},
			requirement{"key_column", s.KeyColumn != ""},
			requirement{"value_column", s.ValueColumn != ""},
		)
	case OpTrim:
		return require(requirement{"input", s.Input != ""}, requirement{"output", s.Output != ""})
	case OpCrop:
		return require(
			requirement{"input", s.Input != ""},
			requirement{"output", s.Output != ""},
			requirement{"extent or template", s.Extent != nil || s.Template != ""},
		)
	case OpReproject:
		return require(
			requirement{"input", s.Input != ""},
			requirement{"output", s.Output != ""},
			requirement{"template or crs and resolution", s.Template != "" || s.CRS != "" && s.Resolution != nil},
		)
	case OpRasterize:
		return require(
			requirement{"features", s.Features != ""},
			requirement{"template", s.Template != ""},
			requirement{"output", s.Output != ""},
		)
	case OpMask:
		return require(
			requirement{"input", s.Input != ""},
			requirement{"output", s.Output != ""},
			requirement{"mask or features", s.Mask != "" || s.Features != ""},
		)
	case OpWrite:
		return require(requirement{"input or inputs", s.Input != "" || len(s.Inputs) > 0}, requirement{"path", s.Path != ""})
	default:
		return eris.Errorf("unknown op %q", s.Op)
	}
}
