// Package geo provides distance and bounding-box helpers for POI queries.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/Tang0602/Amap/internal/model"
)

// Radius limits for proximity searches (meters).
const (
	MinRadiusMeters     = 100.0
	DefaultRadiusMeters = 5000.0
	MaxRadiusMeters     = 50000.0
)

// Point converts a coordinate to an orb point (lon, lat order).
func Point(c model.Coord) orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b model.Coord) float64 {
	return orbgeo.DistanceHaversine(Point(a), Point(b))
}

// ClampRadius restricts a search radius to [min, max]. Zero or negative
// radii fall back to def.
func ClampRadius(meters, def, min, max float64) float64 {
	if meters <= 0 {
		meters = def
	}
	if meters < min {
		return min
	}
	if meters > max {
		return max
	}
	return meters
}

// BoundAround returns the lat/lon box enclosing a circle of the given radius.
func BoundAround(center model.Coord, meters float64) orb.Bound {
	return orbgeo.NewBoundAroundPoint(Point(center), meters)
}

// SearchBounds returns the boxes to scan for a circle around center. A
// circle crossing the antimeridian yields two boxes, one on each side.
func SearchBounds(center model.Coord, meters float64) []orb.Bound {
	b := BoundAround(center, meters)
	minLon, maxLon := b.Min.Lon(), b.Max.Lon()

	box := func(lo, hi float64) orb.Bound {
		return orb.Bound{Min: orb.Point{lo, b.Min.Lat()}, Max: orb.Point{hi, b.Max.Lat()}}
	}
	switch {
	case math.IsNaN(minLon) || math.IsNaN(maxLon):
		// Circle reaches past the pole along a parallel.
		return []orb.Bound{box(-180, 180)}
	case minLon > maxLon:
		return []orb.Bound{box(minLon, 180), box(-180, maxLon)}
	default:
		return []orb.Bound{b}
	}
}
