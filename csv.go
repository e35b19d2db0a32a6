package rastergrid

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// csvValue is a float64 that decodes NA and empty fields as NoData.
type csvValue float64

func (v *csvValue) UnmarshalCSV(data []byte) error {
	f, err := parseCSVValue(string(data))
	if err != nil {
		return err
	}
	*v = csvValue(f)
	return nil
}

// A csvPoint is a row of a point table.
type csvPoint struct {
	X     float64  `csv:"x"`
	Y     float64  `csv:"y"`
	Value csvValue `csv:"value"`
}

func parseCSVValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "NA") {
		return NoData, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NoData, err
	}
	return f, nil
}

// ReadPointsCSV reads a point table with x, y, and value columns from r and
// returns the Raster formed from its points. See FromPoints.
func ReadPointsCSV(r io.Reader, crs CRS) (*Raster, error) {
	decoder, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	header := decoder.Header()
	for _, column := range []string{"x", "y", "value"} {
		if !slices.Contains(header, column) {
			return nil, eris.Errorf("csv: missing column %q", column)
		}
	}

	var points []Point
	for {
		var row csvPoint
		switch err := decoder.Decode(&row); {
		case errors.Is(err, io.EOF):
			raster, err := FromPoints(crs, points)
			if err != nil {
				return nil, err
			}
			return raster, nil
		case err != nil:
			return nil, eris.Wrapf(err, "csv: row %d", len(points)+1)
		}
		points = append(points, Point{X: row.X, Y: row.Y, Value: float64(row.Value)})
	}
}

// ReadLookupTable reads a lookup table from r, taking keys from keyColumn and
// values from valueColumn. NA and empty values are NoData; rows with an empty
// key are skipped.
func ReadLookupTable[K Key](r io.Reader, keyColumn, valueColumn string) (*LookupTable[K], error) {
	csvReader := csv.NewReader(r)
	csvReader.TrimLeadingSpace = true
	header, err := csvReader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	keyIndex := slices.Index(header, keyColumn)
	if keyIndex < 0 {
		return nil, eris.Errorf("csv: missing key column %q", keyColumn)
	}
	valueIndex := slices.Index(header, valueColumn)
	if valueIndex < 0 {
		return nil, eris.Errorf("csv: missing value column %q", valueColumn)
	}

	table := &LookupTable[K]{
		values: make(map[K]float64),
	}
	for line := 2; ; line++ {
		record, err := csvReader.Read()
		switch {
		case errors.Is(err, io.EOF):
			return table, nil
		case err != nil:
			return nil, eris.Wrapf(err, "csv: line %d", line)
		}
		keyField := strings.TrimSpace(record[keyIndex])
		if keyField == "" {
			continue
		}
		key, err := parseKey[K](keyField)
		if err != nil {
			return nil, eris.Wrapf(err, "csv: line %d: key %q", line, keyField)
		}
		value, err := parseCSVValue(record[valueIndex])
		if err != nil {
			return nil, eris.Wrapf(err, "csv: line %d: value %q", line, record[valueIndex])
		}
		if err := table.add(key, value); err != nil {
			return nil, eris.Wrapf(err, "csv: line %d", line)
		}
	}
}

// parseKey parses s as a K. Integer keys must be whole numbers.
func parseKey[K Key](s string) (K, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	key := K(f)
	if float64(key) != f || math.IsNaN(f) {
		return 0, strconv.ErrSyntax
	}
	return key, nil
}
