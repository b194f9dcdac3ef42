package model

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// EWKT serializes a polygon as SRID-prefixed well-known text
func EWKT(p orb.Polygon) string {
	if len(p) == 0 {
		return ""
	}
	return EWKTPrefix + wkt.MarshalString(p)
}

// ParseEWKT reads (E)WKT, dropping any SRID prefix
func ParseEWKT(value string) (orb.Geometry, error) {
	value = strings.TrimSpace(value)
	if i := strings.Index(value, ";"); i >= 0 && strings.HasPrefix(strings.ToUpper(value), "SRID=") {
		value = value[i+1:]
	}
	geom, err := wkt.Unmarshal(value)
	if err != nil {
		return nil, errors.Wrapf(util.ErrParse, "invalid geometry %q: %v", value, err)
	}
	return geom, nil
}

// PolygonFromLatLon builds a closed lon/lat polygon from a flat list of
// alternating latitude and longitude values.
func PolygonFromLatLon(values []float64) (orb.Polygon, error) {
	if len(values)%2 != 0 || len(values) < 6 {
		return nil, errors.Wrapf(util.ErrParse, "need at least three lat/lon pairs, got %d values", len(values))
	}
	ring := make(orb.Ring, 0, len(values)/2+1)
	for i := 0; i < len(values); i += 2 {
		ring = append(ring, orb.Point{values[i+1], values[i]})
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}, nil
}

// ParseLatLonList parses coordinate text such as "lat,lon lat,lon" or
// "lat lon lat lon" into a lon/lat polygon.
func ParseLatLonList(text string) (orb.Polygon, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\n' || r == '\t'
	})
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrapf(util.ErrParse, "invalid coordinate %q", f)
		}
		values[i] = v
	}
	return PolygonFromLatLon(values)
}

// Envelope is the bounding box of p as a polygon
func Envelope(p orb.Polygon) orb.Polygon {
	if len(p) == 0 {
		return nil
	}
	return p.Bound().ToPolygon()
}
