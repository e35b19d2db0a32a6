package rastergrid

import (
	"errors"
	"fmt"
)

var errParse = errors.New("parse error")

type GeoKey uint16

const (
	GeoKeyGTModelType  GeoKey = 1024
	GeoKeyGTRasterType GeoKey = 1025
	GeoKeyGTCitation   GeoKey = 1026

	GeoKeyGeodeticCRS     GeoKey = 2048
	GeoKeyGeogCitation    GeoKey = 2049
	GeoKeyGeodeticDatum   GeoKey = 2050
	GeoKeyAngularUnits    GeoKey = 2054
	GeoKeyEllipsoid       GeoKey = 2056
	GeoKeySemiMajorAxis   GeoKey = 2057
	GeoKeyInvFlattening   GeoKey = 2059
	GeoKeyProjectedCRS    GeoKey = 3072
	GeoKeyPCSCitation     GeoKey = 3073
	GeoKeyProjection      GeoKey = 3074
	GeoKeyProjLinearUnits GeoKey = 3076
)

// Model types.
const (
	modelTypeProjected  = 1
	modelTypeGeographic = 2
)

// rasterTypePixelIsPoint is the GTRasterType for tie points at pixel centers.
const rasterTypePixelIsPoint = 2

// userDefined is the GeoKey value for a user-defined code.
const userDefined = 32767

type ParsedGeoKeys struct {
	Params       map[GeoKey]int
	DoubleParams map[GeoKey]float64
	ASCIIParams  map[GeoKey]string
}

func ParseGeoKeys(directory []uint16, doubleParams []float64, asciiParams []byte) (*ParsedGeoKeys, error) {
	if len(directory) < 4 {
		return nil, errParse
	}

	if keyDirectoryVersion := int(directory[0]); keyDirectoryVersion != 1 {
		return nil, errParse
	}
	if keyRevision := int(directory[1]); keyRevision != 1 {
		return nil, errParse
	}
	if minorRevision := int(directory[2]); minorRevision != 0 && minorRevision != 1 {
		return nil, errParse
	}
	numberOfKeys := int(directory[3])
	if len(directory) != 4+4*numberOfKeys {
		return nil, errParse
	}

	parsedGeoKeys := &ParsedGeoKeys{
		Params:       make(map[GeoKey]int),
		DoubleParams: make(map[GeoKey]float64),
		ASCIIParams:  make(map[GeoKey]string),
	}
	for i := range numberOfKeys {
		keyValues := directory[4+4*i : 4+4*(i+1)]
		key := GeoKey(keyValues[0])
		tiffTagLocation := int(keyValues[1])
		numberOfValues := int(keyValues[2])
		index := int(keyValues[3])
		switch tiffTagLocation {
		case 0:
			if numberOfValues != 1 {
				return nil, errParse
			}
			parsedGeoKeys.Params[key] = index
		case 34736: // GeoDoubleParamsTag
			if numberOfValues != 1 {
				return nil, errors.ErrUnsupported
			}
			if index >= len(doubleParams) {
				return nil, fmt.Errorf("geokey %d: %w", key, errParse)
			}
			parsedGeoKeys.DoubleParams[key] = doubleParams[index]
		case 34737: // GeoASCIIParamsTag
			if index+numberOfValues > len(asciiParams) {
				return nil, fmt.Errorf("geokey %d: %w", key, errParse)
			}
			parsedGeoKeys.ASCIIParams[key] = string(asciiParams[index : index+numberOfValues])
		default:
			return nil, errors.ErrUnsupported
		}
	}
	return parsedGeoKeys, nil
}

// CRS returns the EPSG CRS identified by k, or the zero CRS if k describes a
// user-defined CRS.
func (k *ParsedGeoKeys) CRS() CRS {
	var key GeoKey
	switch k.Params[GeoKeyGTModelType] {
	case modelTypeProjected:
		key = GeoKeyProjectedCRS
	case modelTypeGeographic:
		key = GeoKeyGeodeticCRS
	default:
		return ""
	}
	code, ok := k.Params[key]
	if !ok || code == 0 || code == userDefined {
		return ""
	}
	return EPSG(code)
}
