package rastergrid

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
)

var errUnsupportedGeometry = errors.New("unsupported geometry")

// A Feature is a geometry with attributes. Attribute values are float64,
// int64, string, or nil.
type Feature struct {
	Geometry   geom.T
	Attributes map[string]any
}

// A FeatureSet is an ordered collection of features sharing a CRS.
type FeatureSet struct {
	CRS      CRS
	Fields   []string
	Features []Feature
}

// NewFeatureSet returns a new FeatureSet. Fields are collected from the
// features' attributes in order of first appearance.
func NewFeatureSet(crs CRS, features ...Feature) *FeatureSet {
	fs := &FeatureSet{
		CRS:      crs.Normalize(),
		Features: features,
	}
	seen := make(map[string]struct{})
	for _, feature := range features {
		for _, name := range slices.Sorted(maps.Keys(feature.Attributes)) {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			fs.Fields = append(fs.Fields, name)
		}
	}
	return fs
}

// Len returns the number of features in fs.
func (fs *FeatureSet) Len() int {
	return len(fs.Features)
}

// HasField returns whether fs has a field called name.
func (fs *FeatureSet) HasField(name string) bool {
	return slices.Contains(fs.Fields, name)
}

// Bounds returns the bounds of all geometries in fs.
func (fs *FeatureSet) Bounds() *geom.Bounds {
	bounds := geom.NewBounds(geom.XY)
	for _, feature := range fs.Features {
		if feature.Geometry == nil || len(feature.Geometry.FlatCoords()) == 0 {
			continue
		}
		bounds.Extend(feature.Geometry)
	}
	return bounds
}

// Values returns the numeric value of attribute for every feature. An empty
// attribute selects the 1-based feature index. Nil attribute values are
// returned as NoData.
func (fs *FeatureSet) Values(attribute string) ([]float64, error) {
	values := make([]float64, len(fs.Features))
	if attribute == "" {
		for i := range values {
			values[i] = float64(i + 1)
		}
		return values, nil
	}
	if !fs.HasField(attribute) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	for i, feature := range fs.Features {
		value, err := numericValue(feature.Attributes[attribute])
		if err != nil {
			return nil, fmt.Errorf("feature %d: %s: %w", i, attribute, err)
		}
		values[i] = value
	}
	return values, nil
}

func numericValue(value any) (float64, error) {
	switch value := value.(type) {
	case nil:
		return NoData, nil
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int32:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case bool:
		if value {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(value)
		if s == "" || strings.EqualFold(s, "NA") {
			return NoData, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return NoData, fmt.Errorf("%w: %q", ErrNonNumericAttribute, value)
		}
		return f, nil
	default:
		return NoData, fmt.Errorf("%w: %T", ErrNonNumericAttribute, value)
	}
}

// cloneGeometry returns a deep copy of g.
func cloneGeometry(g geom.T) (geom.T, error) {
	switch g := g.(type) {
	case *geom.Point:
		return g.Clone(), nil
	case *geom.MultiPoint:
		return g.Clone(), nil
	case *geom.LineString:
		return g.Clone(), nil
	case *geom.MultiLineString:
		return g.Clone(), nil
	case *geom.Polygon:
		return g.Clone(), nil
	case *geom.MultiPolygon:
		return g.Clone(), nil
	default:
		return nil, fmt.Errorf("%T: %w", g, errUnsupportedGeometry)
	}
}
