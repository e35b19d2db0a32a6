package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-rastergrid"
)

func TestParse(t *testing.T) {
	wf, err := Parse([]byte(`
name: habitat
steps:
- name: ids
  op: read_points
  path: ids.csv
  crs: EPSG:32633
  output: ids
- op: substitute
  input: ids
  path: suitability.csv
  key_column: id
  value_column: suitability
  output: suitability
- op: trim
  input: suitability
  output: trimmed
- op: reproject
  input: trimmed
  crs: EPSG:4326
  resolution: 0.01
  method: bilinear
  output: geographic
`))
	assert.NoError(t, err)
	assert.Equal(t, "habitat", wf.Name)
	assert.Equal(t, 4, len(wf.Steps))
	assert.Equal(t, "ids", wf.Steps[0].label())
	assert.Equal(t, "substitute", wf.Steps[1].label())
	assert.Equal(t, 0.01, *wf.Steps[3].Resolution)
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
	}{
		{
			name: "no_steps",
			yaml: "name: empty\n",
		},
		{
			name: "unknown_field",
			yaml: "steps:\n- op: trim\n  input: a\n  output: b\n  colour: red\n",
		},
		{
			name: "unknown_op",
			yaml: "steps:\n- op: smooth\n  input: a\n  output: b\n",
		},
		{
			name: "missing_output",
			yaml: "steps:\n- op: trim\n  input: a\n",
		},
		{
			name: "reproject_without_resolution",
			yaml: "steps:\n- op: reproject\n  input: a\n  output: b\n  crs: EPSG:4326\n",
		},
		{
			name: "crop_without_extent",
			yaml: "steps:\n- op: crop\n  input: a\n  output: b\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func TestRunSubstituteTrim(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ids.csv", "x,y,value\n0,0,1\n1,0,2\n2,0,3\n3,0,4\n")
	writeFile(t, dir, "suitability.csv", "id,suitability\n1,0.1\n2,0.4\n3,0.9\n4,NA\n")
	writeFile(t, dir, "workflow.yaml", `
steps:
- op: read_points
  path: ids.csv
  output: ids
- op: substitute
  input: ids
  path: suitability.csv
  key_column: id
  value_column: suitability
  output: suitability
- op: trim
  input: suitability
  output: trimmed
- op: crop
  input: trimmed
  extent: {xmin: -0.5, xmax: 1.5, ymin: -0.5, ymax: 0.5}
  output: cropped
`)

	wf, err := Load(filepath.Join(dir, "workflow.yaml"))
	assert.NoError(t, err)

	runner := NewRunner(nil)
	assert.NoError(t, runner.Run(context.Background(), wf))

	trimmed, ok := runner.Raster("trimmed")
	assert.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.4, 0.9}, trimmed.Cells())

	cropped, ok := runner.Raster("cropped")
	assert.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.4}, cropped.Cells())
}

func TestRunMask(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "values.csv", "x,y,value\n0,0,1\n1,0,2\n0,1,3\n1,1,4\n")
	writeFile(t, dir, "mask.csv", "x,y,value\n0,0,NA\n1,0,1\n0,1,1\n1,1,\n")
	wf, err := Parse([]byte(`
steps:
- op: read_points
  path: values.csv
  output: values
- op: read_points
  path: mask.csv
  output: mask
- op: mask
  input: values
  mask: mask
  output: masked
`))
	assert.NoError(t, err)
	wf.dir = dir

	runner := NewRunner(nil)
	assert.NoError(t, runner.Run(context.Background(), wf))

	masked, ok := runner.Raster("masked")
	assert.True(t, ok)
	assert.Equal(t, 2, masked.DataCount())
	value, ok := masked.Value(1, 0)
	assert.True(t, ok)
	assert.Equal(t, 2.0, value)
	assert.True(t, rastergrid.IsNoData(masked.At(0, 1)))
}

func TestRunUnknownRaster(t *testing.T) {
	wf, err := Parse([]byte("steps:\n- op: trim\n  input: missing\n  output: b\n"))
	assert.NoError(t, err)
	err = NewRunner(nil).Run(context.Background(), wf)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `unknown raster "missing"`)
}

func TestRunCancelled(t *testing.T) {
	wf, err := Parse([]byte("steps:\n- op: trim\n  input: missing\n  output: b\n"))
	assert.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewRunner(nil).Run(ctx, wf)
	assert.IsError(t, err, context.Canceled)
}
