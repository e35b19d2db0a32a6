package rastergrid

import (
	"regexp"
	"strconv"
	"strings"
)

// A CRS is a coordinate reference system definition: an EPSG identifier
// (EPSG:4326), a PROJ string, or WKT. The zero value means that no CRS has been
// assigned.
type CRS string

var epsgRx = regexp.MustCompile(`(?i)^\s*epsg\s*:\s*(\d+)\s*$`)

// EPSG returns the CRS for an EPSG code.
func EPSG(code int) CRS {
	return CRS("EPSG:" + strconv.Itoa(code))
}

// Normalize returns c with surrounding whitespace removed, internal runs of
// whitespace collapsed to a single space, and EPSG identifiers in the
// canonical EPSG:<code> form.
func (c CRS) Normalize() CRS {
	if m := epsgRx.FindStringSubmatch(string(c)); m != nil {
		code, err := strconv.Atoi(m[1])
		if err == nil {
			return EPSG(code)
		}
	}
	return CRS(strings.Join(strings.Fields(string(c)), " "))
}

// Equal returns whether c and other have identical normalized definitions. No
// semantic equivalence checking is performed.
func (c CRS) Equal(other CRS) bool {
	return c.Normalize() == other.Normalize()
}

// IsZero returns whether c is unset.
func (c CRS) IsZero() bool {
	return c.Normalize() == ""
}

// EPSGCode returns c's EPSG code, if c is an EPSG identifier.
func (c CRS) EPSGCode() (int, bool) {
	m := epsgRx.FindStringSubmatch(string(c))
	if m == nil {
		return 0, false
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return code, true
}

// IsPROJString returns whether c is a PROJ string, e.g. +proj=longlat.
func (c CRS) IsPROJString() bool {
	return strings.HasPrefix(string(c.Normalize()), "+")
}

func (c CRS) String() string {
	return string(c.Normalize())
}
