package rastergrid

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/twpayne/go-geom"
)

func newTestFeatureSet() *FeatureSet {
	return NewFeatureSet("epsg:32633",
		Feature{
			Geometry: geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
				{{0, 0}, {0, 2}, {2, 2}, {2, 0}, {0, 0}},
			}),
			Attributes: map[string]any{
				"name":  "west",
				"score": 0.5,
			},
		},
		Feature{
			Geometry: geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{3.5, 3.5}),
			Attributes: map[string]any{
				"score": int64(3),
				"class": "7",
			},
		},
		Feature{
			Geometry: geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{1, 5}, {4, 5}}),
			Attributes: map[string]any{
				"score": nil,
				"class": "NA",
				"name":  "north",
			},
		},
	)
}

func TestNewFeatureSet(t *testing.T) {
	fs := newTestFeatureSet()
	assert.Equal(t, CRS("EPSG:32633"), fs.CRS)
	assert.Equal(t, 3, fs.Len())
	assert.Equal(t, []string{"name", "score", "class"}, fs.Fields)
	assert.True(t, fs.HasField("class"))
	assert.False(t, fs.HasField("id"))
}

func TestFeatureSetValues(t *testing.T) {
	fs := newTestFeatureSet()

	values, err := fs.Values("")
	assert.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, values)

	values, err = fs.Values("score")
	assert.NoError(t, err)
	assert.Equal(t, 0.5, values[0])
	assert.Equal(t, 3.0, values[1])
	assert.True(t, IsNoData(values[2]))

	values, err = fs.Values("class")
	assert.NoError(t, err)
	assert.True(t, IsNoData(values[0]))
	assert.Equal(t, 7.0, values[1])
	assert.True(t, IsNoData(values[2]))

	_, err = fs.Values("name")
	assert.IsError(t, err, ErrNonNumericAttribute)

	_, err = fs.Values("id")
	assert.IsError(t, err, ErrUnknownAttribute)
}

func TestFeatureSetBounds(t *testing.T) {
	fs := newTestFeatureSet()
	fs.Features = append(fs.Features, Feature{Geometry: geom.NewPolygon(geom.XY)})
	bounds := fs.Bounds()
	assert.Equal(t, 0.0, bounds.Min(0))
	assert.Equal(t, 0.0, bounds.Min(1))
	assert.Equal(t, 4.0, bounds.Max(0))
	assert.Equal(t, 5.0, bounds.Max(1))
}
