package rastergrid

import (
	"fmt"
	"math"
)

// A Key is a type that can be used to look up cell values.
type Key interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// A LookupTable maps keys to replacement cell values. A replacement value may
// be NoData.
type LookupTable[K Key] struct {
	values map[K]float64
}

// SubstituteStats records the outcome of a substitution.
type SubstituteStats struct {
	Matched   int
	Unmatched int
	NoData    int
}

// NewLookupTable returns a new LookupTable containing entries.
func NewLookupTable[K Key](entries map[K]float64) (*LookupTable[K], error) {
	t := &LookupTable[K]{
		values: make(map[K]float64, len(entries)),
	}
	for key, value := range entries {
		if err := t.add(key, value); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NewLookupTableFromPairs returns a new LookupTable mapping keys[i] to
// values[i]. A key may repeat only with the same value.
func NewLookupTableFromPairs[K Key](keys []K, values []float64) (*LookupTable[K], error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("%d keys but %d values", len(keys), len(values))
	}
	t := &LookupTable[K]{
		values: make(map[K]float64, len(keys)),
	}
	for i, key := range keys {
		if err := t.add(key, values[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *LookupTable[K]) add(key K, value float64) error {
	if k := float64(key); math.IsNaN(k) || math.IsInf(k, 0) {
		return fmt.Errorf("invalid key %v", key)
	}
	if math.IsInf(value, 0) {
		return fmt.Errorf("invalid value %v for key %v", value, key)
	}
	if existing, ok := t.values[key]; ok && !sameValue(existing, value) {
		return fmt.Errorf("%w: %v maps to both %v and %v", ErrDuplicateKey, key, existing, value)
	}
	t.values[key] = value
	return nil
}

func sameValue(a, b float64) bool {
	return a == b || IsNoData(a) && IsNoData(b)
}

// Len returns the number of entries in t.
func (t *LookupTable[K]) Len() int {
	return len(t.values)
}

// Lookup returns the value for key.
func (t *LookupTable[K]) Lookup(key K) (float64, bool) {
	value, ok := t.values[key]
	return value, ok
}

// lookupCell returns the value for the key equal to cell. A cell matches only
// if it converts to K without loss.
func (t *LookupTable[K]) lookupCell(cell float64) (float64, bool) {
	if IsNoData(cell) {
		return NoData, false
	}
	key := K(cell)
	if float64(key) != cell {
		return NoData, false
	}
	return t.Lookup(key)
}

// Substitute returns a new Raster on r's grid where each cell is replaced by
// its value in table. Cells without an entry become NoData.
func Substitute[K Key](r *Raster, table *LookupTable[K]) *Raster {
	result, _ := SubstituteWithStats(r, table)
	return result
}

// SubstituteWithStats is like Substitute but also returns statistics.
func SubstituteWithStats[K Key](r *Raster, table *LookupTable[K]) (*Raster, SubstituteStats) {
	var stats SubstituteStats
	cells := make([]float64, len(r.cells))
	for i, cell := range r.cells {
		if IsNoData(cell) {
			stats.NoData++
			cells[i] = NoData
			continue
		}
		value, ok := table.lookupCell(cell)
		if !ok {
			stats.Unmatched++
			cells[i] = NoData
			continue
		}
		stats.Matched++
		cells[i] = value
	}
	return newWithCells(r.grid, cells), stats
}
