// Package model defines the entity and record types shared across the POI pipeline.
package model

import "time"

// POIRecord is a persisted point of interest. Records are created once during
// extraction and never mutated afterwards.
type POIRecord struct {
	ID           int64      `json:"id,omitempty"`
	OSMID        int64      `json:"osm_id"`
	OSMType      EntityKind `json:"osm_type"`
	Name         string     `json:"name"`
	NameEN       string     `json:"name_en,omitempty"`
	MainCategory string     `json:"main_category"`
	SubCategory  string     `json:"sub_category"`
	Lat          float64    `json:"lat"`
	Lon          float64    `json:"lon"`
	Address      *string    `json:"address,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Website      *string    `json:"website,omitempty"`
	OpeningHours *string    `json:"opening_hours,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Rating       *float64   `json:"rating,omitempty"`
	Tags         string     `json:"tags,omitempty"`
}

// Coord returns the record position.
func (r *POIRecord) Coord() Coord {
	return Coord{Lat: r.Lat, Lon: r.Lon}
}

// SpatialEntry is the bounding box stored for a POI in the spatial index.
// For point data the box is degenerate (min == max on both axes).
type SpatialEntry struct {
	ID     int64   `json:"id"`
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// CategoryCount is one row of the category aggregate table.
type CategoryCount struct {
	Main  string `json:"main_category"`
	Sub   string `json:"sub_category"`
	Count int    `json:"count"`
}

// Metadata holds the provenance facts stamped at the end of a build.
type Metadata struct {
	Version    string    `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	SourceFile string    `json:"source_file"`
	POICount   int       `json:"poi_count"`
	Generator  string    `json:"generator"`
	RunID      string    `json:"run_id"`
}

// POIResult is a query hit. Distance is set (meters) when the query had a center.
type POIResult struct {
	POIRecord
	Distance *float64 `json:"distance,omitempty"`
}
