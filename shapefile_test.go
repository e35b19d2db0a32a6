package rastergrid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
)

func writeTestShapefile(t *testing.T, path string, shapeType shp.ShapeType, shapes []shp.Shape, fields []shp.Field, attributes [][]any) {
	t.Helper()
	w, err := shp.Create(path, shapeType)
	assert.NoError(t, err)
	assert.NoError(t, w.SetFields(fields))
	for i, shape := range shapes {
		w.Write(shape)
		for j, value := range attributes[i] {
			if value == nil {
				continue
			}
			assert.NoError(t, w.WriteAttribute(i, j, value))
		}
	}
	w.Close()
	// shp.Writer names the table <base>dbf.
	base := strings.TrimSuffix(path, ".shp")
	assert.NoError(t, os.Rename(base+"dbf", base+".dbf"))
}

func TestReadShapefilePolygons(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "habitats.shp")

	outer := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 0}, {X: 0, Y: 0}}
	hole := []shp.Point{{X: 1, Y: 1}, {X: 3, Y: 1}, {X: 3, Y: 3}, {X: 1, Y: 3}, {X: 1, Y: 1}}
	second := []shp.Point{{X: 10, Y: 0}, {X: 10, Y: 1}, {X: 11, Y: 1}, {X: 11, Y: 0}, {X: 10, Y: 0}}
	donut := shp.Polygon(*shp.NewPolyLine([][]shp.Point{outer, hole}))
	pair := shp.Polygon(*shp.NewPolyLine([][]shp.Point{outer, second}))
	writeTestShapefile(t, path, shp.POLYGON,
		[]shp.Shape{&donut, &pair},
		[]shp.Field{
			shp.StringField("NAME", 16),
			shp.FloatField("SCORE", 8, 2),
			shp.NumberField("CLASS", 4),
		},
		[][]any{
			{"wetland", 0.75, 3},
			{"meadow", nil, 12},
		},
	)
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "habitats.prj"), []byte("epsg:32633\n"), 0o644))

	fs, err := ReadShapefile(path)
	assert.NoError(t, err)
	assert.Equal(t, CRS("EPSG:32633"), fs.CRS)
	assert.Equal(t, []string{"NAME", "SCORE", "CLASS"}, fs.Fields)
	assert.Equal(t, 2, fs.Len())

	polygon, ok := fs.Features[0].Geometry.(*geom.Polygon)
	assert.True(t, ok)
	assert.Equal(t, 2, polygon.NumLinearRings())
	assert.Equal(t, "wetland", fs.Features[0].Attributes["NAME"])
	assert.Equal(t, 0.75, fs.Features[0].Attributes["SCORE"])
	assert.Equal(t, any(int64(3)), fs.Features[0].Attributes["CLASS"])

	multiPolygon, ok := fs.Features[1].Geometry.(*geom.MultiPolygon)
	assert.True(t, ok)
	assert.Equal(t, 2, multiPolygon.NumPolygons())
	assert.Equal(t, nil, fs.Features[1].Attributes["SCORE"])

	scores, err := fs.Values("SCORE")
	assert.NoError(t, err)
	assert.Equal(t, 0.75, scores[0])
	assert.True(t, IsNoData(scores[1]))
}

func TestReadShapefilePoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sites.shp")
	writeTestShapefile(t, path, shp.POINT,
		[]shp.Shape{&shp.Point{X: 1.5, Y: 2.5}, &shp.Point{X: 3, Y: 4}},
		[]shp.Field{shp.StringField("NAME", 16)},
		[][]any{{"caf\xe9"}, {"north"}},
	)
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "sites.cpg"), []byte("1252"), 0o644))

	fs, err := ReadShapefile(path)
	assert.NoError(t, err)
	assert.True(t, fs.CRS.IsZero())
	point, ok := fs.Features[0].Geometry.(*geom.Point)
	assert.True(t, ok)
	assert.Equal(t, []float64{1.5, 2.5}, point.FlatCoords())
	assert.Equal(t, "café", fs.Features[0].Attributes["NAME"])
	assert.Equal(t, "north", fs.Features[1].Attributes["NAME"])
}

func TestReadShapefileMissing(t *testing.T) {
	_, err := ReadShapefile(filepath.Join(t.TempDir(), "missing.shp"))
	assert.Error(t, err)
}

func TestReadShapefileTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.shp")
	writeTestShapefile(t, path, shp.POINT,
		[]shp.Shape{&shp.Point{X: 1, Y: 2}, &shp.Point{X: 3, Y: 4}},
		[]shp.Field{shp.NumberField("ID", 4)},
		[][]any{{1}, {2}},
	)
	info, err := os.Stat(path)
	assert.NoError(t, err)
	assert.NoError(t, os.Truncate(path, info.Size()-8))

	_, err = ReadShapefile(path)
	assert.Error(t, err)
}

func TestShapefileEncoding(t *testing.T) {
	for _, tc := range []struct {
		codePage string
		input    string
		expected string
	}{
		{codePage: "", input: "café", expected: "café"},
		{codePage: "UTF-8", input: "café", expected: "café"},
		{codePage: "1252", input: "caf\xe9", expected: "café"},
		{codePage: "ANSI 1252", input: "caf\xe9", expected: "café"},
		{codePage: "CP1251", input: "\xcc\xee\xf1\xea\xe2\xe0", expected: "Москва"},
		{codePage: "ISO-8859-1", input: "caf\xe9", expected: "café"},
	} {
		t.Run(tc.codePage, func(t *testing.T) {
			enc, err := shapefileEncoding(tc.codePage)
			assert.NoError(t, err)
			actual, err := enc.NewDecoder().String(tc.input)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}

	_, err := shapefileEncoding("klingon")
	assert.Error(t, err)
}

func TestPolygonToGeometryOrientation(t *testing.T) {
	counterClockwise := []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}
	assert.True(t, signedArea(counterClockwise) > 0)
	g := polygonToGeometry([]int32{0}, counterClockwise)
	polygon, ok := g.(*geom.Polygon)
	assert.True(t, ok)
	assert.Equal(t, 1, polygon.NumLinearRings())
}
