package rastergrid

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestReadPointsCSV(t *testing.T) {
	raster, err := ReadPointsCSV(strings.NewReader(""+
		"id,x,y,value\n"+
		"a,0,0,1\n"+
		"b,10,0,NA\n"+
		"c,0,10,na\n"+
		"d,10,10,4.5\n",
	), "EPSG:32633")
	assert.NoError(t, err)
	assert.Equal(t, CRS("EPSG:32633"), raster.CRS())
	assert.Equal(t, Extent{XMin: -5, XMax: 15, YMin: -5, YMax: 15}, raster.Grid().Extent())
	assert.Equal(t, 2, raster.DataCount())
	value, ok := raster.Value(10, 10)
	assert.True(t, ok)
	assert.Equal(t, 4.5, value)
	value, ok = raster.Value(10, 0)
	assert.True(t, ok)
	assert.True(t, IsNoData(value))
}

func TestReadPointsCSVErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		csv  string
	}{
		{
			name: "empty",
			csv:  "",
		},
		{
			name: "missing_column",
			csv:  "x,y\n0,0\n",
		},
		{
			name: "bad_value",
			csv:  "x,y,value\n0,0,high\n",
		},
		{
			name: "bad_coordinate",
			csv:  "x,y,value\nwest,0,1\n",
		},
		{
			name: "irregular",
			csv:  "x,y,value\n0,0,1\n2,0,1\n3,0,1\n4.5,0,1\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadPointsCSV(strings.NewReader(tc.csv), "")
			assert.Error(t, err)
		})
	}
}

func TestReadLookupTable(t *testing.T) {
	table, err := ReadLookupTable[int64](strings.NewReader(""+
		"id,name,suitability\n"+
		"1,forest,0.1\n"+
		"2,grass,0.4\n"+
		" 3 ,scrub,0.9\n"+
		"4,water,NA\n"+
		",unknown,0.5\n"+
		"1,forest,0.1\n",
	), "id", "suitability")
	assert.NoError(t, err)
	assert.Equal(t, 4, table.Len())
	for key, expected := range map[int64]float64{1: 0.1, 2: 0.4, 3: 0.9} {
		actual, ok := table.Lookup(key)
		assert.True(t, ok)
		assert.Equal(t, expected, actual)
	}
	value, ok := table.Lookup(4)
	assert.True(t, ok)
	assert.True(t, IsNoData(value))
}

func TestReadLookupTableErrors(t *testing.T) {
	for _, tc := range []struct {
		name        string
		csv         string
		expectedErr error
	}{
		{
			name: "missing_key_column",
			csv:  "code,suitability\n1,0.1\n",
		},
		{
			name: "missing_value_column",
			csv:  "id,value\n1,0.1\n",
		},
		{
			name: "fractional_key",
			csv:  "id,suitability\n1.5,0.1\n",
		},
		{
			name: "bad_value",
			csv:  "id,suitability\n1,high\n",
		},
		{
			name:        "duplicate_key",
			csv:         "id,suitability\n1,0.1\n1,0.2\n",
			expectedErr: ErrDuplicateKey,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadLookupTable[int64](strings.NewReader(tc.csv), "id", "suitability")
			if tc.expectedErr != nil {
				assert.IsError(t, err, tc.expectedErr)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
