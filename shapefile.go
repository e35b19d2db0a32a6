package rastergrid

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// ReadShapefile reads the shapefile at path. Attributes are decoded using the
// encoding named in the accompanying .cpg file, if any, and the CRS is read
// from the accompanying .prj file, if any. Z and M values are discarded.
func ReadShapefile(path string) (*FeatureSet, error) {
	base := strings.TrimSuffix(path, ".shp")

	crs, err := readSidecar(base, ".prj")
	if err != nil {
		return nil, err
	}
	codePage, err := readSidecar(base, ".cpg")
	if err != nil {
		return nil, err
	}
	enc, err := shapefileEncoding(codePage)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: code page %q", codePage)
	}
	decoder := enc.NewDecoder()

	reader, err := shp.Open(base + ".shp")
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: open %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	featureSet := &FeatureSet{
		CRS:    CRS(crs).Normalize(),
		Fields: make([]string, len(fields)),
	}
	for i, field := range fields {
		featureSet.Fields[i] = strings.TrimRight(field.String(), "\x00")
	}

	skipped := 0
	for reader.Next() {
		index, shape := reader.Shape()
		g, err := shapeToGeometry(shape)
		switch {
		case errors.Is(err, errUnsupportedGeometry):
			skipped++
		case err != nil:
			return nil, eris.Wrapf(err, "shapefile: %s: record %d", path, index)
		}

		attributes := make(map[string]any, len(fields))
		for i, field := range fields {
			value := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if field.Fieldtype == 'C' {
				if value, err = decoder.String(value); err != nil {
					return nil, eris.Wrapf(err, "shapefile: %s: record %d: decode %s", path, index, featureSet.Fields[i])
				}
			}
			attributes[featureSet.Fields[i]] = attributeValue(field, value)
		}
		featureSet.Features = append(featureSet.Features, Feature{
			Geometry:   g,
			Attributes: attributes,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "shapefile: read %s", path)
	}

	zap.L().Debug("shapefile: read",
		zap.String("path", path),
		zap.Int("features", len(featureSet.Features)),
		zap.Int("skipped", skipped),
		zap.Stringer("crs", featureSet.CRS),
	)
	return featureSet, nil
}

// readSidecar returns the trimmed contents of the file base+ext, or the empty
// string if it does not exist.
func readSidecar(base, ext string) (string, error) {
	data, err := os.ReadFile(base + ext)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", eris.Wrapf(err, "shapefile: read %s", base+ext)
	default:
		return strings.TrimSpace(string(data)), nil
	}
}

// shapefileEncoding returns the encoding for a .cpg code page. Bare Windows
// code page numbers are accepted.
func shapefileEncoding(codePage string) (encoding.Encoding, error) {
	name := strings.ToLower(strings.TrimSpace(codePage))
	name = strings.TrimPrefix(name, "ansi ")
	name = strings.TrimPrefix(name, "cp")
	switch name {
	case "", "utf8", "utf-8", "65001":
		return unicode.UTF8, nil
	case "874", "1250", "1251", "1252", "1253", "1254", "1255", "1256", "1257", "1258":
		name = "windows-" + name
	case "932":
		name = "shift_jis"
	case "936":
		name = "gbk"
	case "949":
		name = "euc-kr"
	case "950":
		name = "big5"
	case "88591":
		name = "iso-8859-1"
	}
	return htmlindex.Get(name)
}

// attributeValue converts a DBF attribute to a float64, int64, bool, string,
// or nil.
func attributeValue(field shp.Field, value string) any {
	if value == "" {
		return nil
	}
	switch field.Fieldtype {
	case 'N', 'F':
		if field.Precision == 0 {
			if i, err := strconv.ParseInt(value, 10, 64); err == nil {
				return i
			}
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		return nil
	case 'L':
		switch value {
		case "T", "t", "Y", "y":
			return true
		case "F", "f", "N", "n":
			return false
		default:
			return nil
		}
	default:
		return value
	}
}

// shapeToGeometry converts a shapefile shape to a geometry. Null shapes
// convert to nil.
func shapeToGeometry(shape shp.Shape) (geom.T, error) {
	switch s := shape.(type) {
	case nil, *shp.Null:
		return nil, nil
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}), nil
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}), nil
	case *shp.PointM:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}), nil
	case *shp.MultiPoint:
		return geom.NewMultiPointFlat(geom.XY, flatPoints(s.Points)), nil
	case *shp.MultiPointZ:
		return geom.NewMultiPointFlat(geom.XY, flatPoints(s.Points)), nil
	case *shp.MultiPointM:
		return geom.NewMultiPointFlat(geom.XY, flatPoints(s.Points)), nil
	case *shp.PolyLine:
		return polyLineToGeometry(s.Parts, s.Points), nil
	case *shp.PolyLineZ:
		return polyLineToGeometry(s.Parts, s.Points), nil
	case *shp.PolyLineM:
		return polyLineToGeometry(s.Parts, s.Points), nil
	case *shp.Polygon:
		return polygonToGeometry(s.Parts, s.Points), nil
	case *shp.PolygonZ:
		return polygonToGeometry(s.Parts, s.Points), nil
	case *shp.PolygonM:
		return polygonToGeometry(s.Parts, s.Points), nil
	default:
		return nil, eris.Wrapf(errUnsupportedGeometry, "shapefile: %T", shape)
	}
}

func flatPoints(points []shp.Point) []float64 {
	flat := make([]float64, 0, 2*len(points))
	for _, point := range points {
		flat = append(flat, point.X, point.Y)
	}
	return flat
}

// partRanges returns the start and end index of each part.
func partRanges(parts []int32, n int) [][2]int {
	ranges := make([][2]int, 0, len(parts))
	for i, start := range parts {
		end := n
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if int(start) < end {
			ranges = append(ranges, [2]int{int(start), end})
		}
	}
	return ranges
}

func polyLineToGeometry(parts []int32, points []shp.Point) geom.T {
	ranges := partRanges(parts, len(points))
	if len(ranges) == 1 {
		return geom.NewLineStringFlat(geom.XY, flatPoints(points[ranges[0][0]:ranges[0][1]]))
	}
	flat := make([]float64, 0, 2*len(points))
	ends := make([]int, 0, len(ranges))
	for _, r := range ranges {
		flat = append(flat, flatPoints(points[r[0]:r[1]])...)
		ends = append(ends, len(flat))
	}
	return geom.NewMultiLineStringFlat(geom.XY, flat, ends)
}

// polygonToGeometry converts shapefile rings to a Polygon or MultiPolygon.
// Clockwise rings are outer rings, and counter-clockwise rings are holes in
// the preceding outer ring.
func polygonToGeometry(parts []int32, points []shp.Point) geom.T {
	var flat []float64
	var endss [][]int
	for _, r := range partRanges(parts, len(points)) {
		ring := points[r[0]:r[1]]
		if signedArea(ring) <= 0 || len(endss) == 0 {
			endss = append(endss, nil)
		}
		flat = append(flat, flatPoints(ring)...)
		endss[len(endss)-1] = append(endss[len(endss)-1], len(flat))
	}
	switch len(endss) {
	case 0:
		return geom.NewPolygon(geom.XY)
	case 1:
		return geom.NewPolygonFlat(geom.XY, flat, endss[0])
	default:
		return geom.NewMultiPolygonFlat(geom.XY, flat, endss)
	}
}

// signedArea returns the shoelace area of ring, positive if ring is
// counter-clockwise.
func signedArea(ring []shp.Point) float64 {
	area := 0.0
	for i := range ring {
		j := (i + 1) % len(ring)
		area += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return area / 2
}
