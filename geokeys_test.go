package rastergrid

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseGeoKeys(t *testing.T) {
	directory := []uint16{
		1, 1, 0, 7,
		1024, 0, 1, 1,
		1025, 0, 1, 1,
		1026, 34737, 22, 0,
		2054, 0, 1, 9102,
		2057, 34736, 1, 0,
		3072, 0, 1, 32633,
		3076, 0, 1, 9001,
	}
	doubleParams := []float64{6378137}
	asciiParams := []byte("WGS 84 / UTM zone 33N|\x00")

	actual, err := ParseGeoKeys(directory, doubleParams, asciiParams)
	assert.NoError(t, err)
	assert.Equal(t, &ParsedGeoKeys{
		Params: map[GeoKey]int{
			GeoKeyGTModelType:     1,
			GeoKeyGTRasterType:    1,
			GeoKeyAngularUnits:    9102,
			GeoKeyProjectedCRS:    32633,
			GeoKeyProjLinearUnits: 9001,
		},
		DoubleParams: map[GeoKey]float64{
			GeoKeySemiMajorAxis: 6378137,
		},
		ASCIIParams: map[GeoKey]string{
			GeoKeyGTCitation: "WGS 84 / UTM zone 33N|",
		},
	}, actual)
	assert.Equal(t, CRS("EPSG:32633"), actual.CRS())
}

func TestParseGeoKeysErrors(t *testing.T) {
	for _, tc := range []struct {
		name         string
		directory    []uint16
		doubleParams []float64
		expectedErr  error
	}{
		{
			name:        "short",
			directory:   []uint16{1, 1, 0},
			expectedErr: errParse,
		},
		{
			name:        "version",
			directory:   []uint16{2, 1, 0, 0},
			expectedErr: errParse,
		},
		{
			name:        "key_count",
			directory:   []uint16{1, 1, 0, 2, 1024, 0, 1, 1},
			expectedErr: errParse,
		},
		{
			name:        "double_index",
			directory:   []uint16{1, 1, 0, 1, 2057, 34736, 1, 3},
			expectedErr: errParse,
		},
		{
			name:        "unknown_location",
			directory:   []uint16{1, 1, 0, 1, 1024, 33550, 1, 0},
			expectedErr: errors.ErrUnsupported,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseGeoKeys(tc.directory, tc.doubleParams, nil)
			assert.IsError(t, err, tc.expectedErr)
		})
	}
}

func TestParsedGeoKeysCRS(t *testing.T) {
	for _, tc := range []struct {
		name     string
		params   map[GeoKey]int
		expected CRS
	}{
		{
			name: "geographic",
			params: map[GeoKey]int{
				GeoKeyGTModelType:  2,
				GeoKeyGeodeticCRS:  4326,
				GeoKeyProjectedCRS: 32633,
			},
			expected: "EPSG:4326",
		},
		{
			name: "projected",
			params: map[GeoKey]int{
				GeoKeyGTModelType:  1,
				GeoKeyProjectedCRS: 3035,
			},
			expected: "EPSG:3035",
		},
		{
			name: "user_defined",
			params: map[GeoKey]int{
				GeoKeyGTModelType:  1,
				GeoKeyProjectedCRS: 32767,
			},
		},
		{
			name: "no_model_type",
			params: map[GeoKey]int{
				GeoKeyGeodeticCRS: 4326,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			k := &ParsedGeoKeys{Params: tc.params}
			assert.Equal(t, tc.expected, k.CRS())
		})
	}
}
