package rastergrid

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseResampling(t *testing.T) {
	for _, tc := range []struct {
		s        string
		expected Resampling
	}{
		{s: "nearest", expected: Nearest},
		{s: "NEAR", expected: Nearest},
		{s: "ngb", expected: Nearest},
		{s: " bilinear ", expected: Bilinear},
	} {
		actual, err := ParseResampling(tc.s)
		assert.NoError(t, err)
		assert.Equal(t, tc.expected, actual)
		assert.Equal(t, actual, must(ParseResampling(actual.String())))
	}

	_, err := ParseResampling("cubic")
	assert.IsError(t, err, ErrUnknownResampling)
}

func must[T any](value T, err error) T {
	if err != nil {
		panic(err)
	}
	return value
}

func TestResampleNearestFiner(t *testing.T) {
	grid, err := NewGrid("EPSG:32633", Extent{XMin: 0, XMax: 4, YMin: 0, YMax: 4}, Resolution{X: 2, Y: 2})
	assert.NoError(t, err)
	src, err := NewFromCells(grid, []float64{
		1, 2,
		3, 4,
	})
	assert.NoError(t, err)

	target, err := NewGrid("EPSG:32633", grid.Extent(), Resolution{X: 1, Y: 1})
	assert.NoError(t, err)
	actual, err := Resample(src, target, Nearest)
	assert.NoError(t, err)
	assert.Equal(t, []float64{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}, actual.Cells())

	counts := make(map[float64]int)
	for _, value := range actual.Cells() {
		counts[value]++
	}
	assert.Equal(t, map[float64]int{1: 4, 2: 4, 3: 4, 4: 4}, counts)
}

func TestResampleBilinear(t *testing.T) {
	src := newTestRaster(t, 2, 0, 10)
	target, err := NewGrid("EPSG:32633", src.Grid().Extent(), Resolution{X: 0.5, Y: 0.5})
	assert.NoError(t, err)

	actual, err := Resample(src, target, Bilinear)
	assert.NoError(t, err)
	expected := []float64{
		0, 2.5, 7.5, 10,
		0, 2.5, 7.5, 10,
	}
	for i, value := range actual.Cells() {
		assert.True(t, math.Abs(expected[i]-value) < 1e-12)
	}
}

func TestSampleBilinear(t *testing.T) {
	raster := newTestRaster(t, 3,
		0, 1, 2,
		2, 3, 4,
		4, 5, 6,
	)
	for _, tc := range []struct {
		x, y     float64
		expected float64
	}{
		{x: 0.5, y: 2.5, expected: 0},
		{x: 1.5, y: 2.5, expected: 1},
		{x: 1, y: 2, expected: 1.5},
		{x: 1, y: 2.5, expected: 0.5},
		{x: 0.5, y: 2, expected: 1},
		{x: 2, y: 1, expected: 4.5},
		{x: 0.1, y: 2.9, expected: 0},
	} {
		actual, err := raster.Sample(tc.x, tc.y, Bilinear)
		assert.NoError(t, err)
		assert.True(t, math.Abs(tc.expected-actual) < 1e-12)
	}

	actual, err := raster.Sample(3.5, 1, Bilinear)
	assert.NoError(t, err)
	assert.True(t, IsNoData(actual))
}

func TestSampleBilinearNoData(t *testing.T) {
	raster := newTestRaster(t, 2, 7, NoData)

	actual, err := raster.Sample(0.25, 0.5, Bilinear)
	assert.NoError(t, err)
	assert.Equal(t, 7.0, actual)

	actual, err = raster.Sample(0.75, 0.5, Bilinear)
	assert.NoError(t, err)
	assert.True(t, IsNoData(actual))

	actual, err = raster.Sample(1.5, 0.5, Nearest)
	assert.NoError(t, err)
	assert.True(t, IsNoData(actual))
}

func TestResampleOutside(t *testing.T) {
	src := newTestRaster(t, 2, 1, 2)
	target, err := NewGrid("EPSG:32633", Extent{XMin: 1, XMax: 3, YMin: 0, YMax: 1}, Resolution{X: 1, Y: 1})
	assert.NoError(t, err)
	for _, method := range []Resampling{Nearest, Bilinear} {
		actual, err := Resample(src, target, method)
		assert.NoError(t, err)
		assert.Equal(t, 2.0, actual.At(0, 0))
		assert.True(t, IsNoData(actual.At(1, 0)))
	}
}

func TestResampleErrors(t *testing.T) {
	src := newTestRaster(t, 2, 1, 2)
	_, err := Resample(src, src.Grid().WithCRS("EPSG:4326"), Nearest)
	assert.IsError(t, err, ErrGridMismatch)
	_, err = Resample(src, src.Grid(), Resampling(99))
	assert.IsError(t, err, ErrUnknownResampling)
}
