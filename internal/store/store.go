// Package store persists POI records in SQLite with full-text and spatial indexes.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Tang0602/Amap/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = eris.New("store: not found")

// Inserter writes a batch of records atomically and returns the identifiers
// the store assigned, in input order.
type Inserter interface {
	InsertBatch(ctx context.Context, recs []model.POIRecord) ([]int64, error)
}

// Store is the write side used by the build pipeline.
type Store interface {
	Inserter

	// RecomputeAggregates rebuilds the category table from the POI table.
	RecomputeAggregates(ctx context.Context) error
	// StampMetadata overwrites the provenance key/value rows.
	StampMetadata(ctx context.Context, md model.Metadata) error
	// CheckIndexes compares the POI table against both secondary indexes.
	CheckIndexes(ctx context.Context) (IndexReport, error)

	Close() error
}

// IndexReport summarizes secondary index consistency.
type IndexReport struct {
	POIRows        int `json:"poi_rows"`
	SpatialRows    int `json:"spatial_rows"`
	FTSRows        int `json:"fts_rows"`
	MissingSpatial int `json:"missing_spatial"`
	OrphanSpatial  int `json:"orphan_spatial"`
	MissingFTS     int `json:"missing_fts"`
	OrphanFTS      int `json:"orphan_fts"`
}

// Consistent reports whether every POI row has exactly one entry in each
// secondary index and no index entry lacks a POI row.
func (r IndexReport) Consistent() bool {
	return r.POIRows == r.SpatialRows && r.POIRows == r.FTSRows &&
		r.MissingSpatial == 0 && r.OrphanSpatial == 0 &&
		r.MissingFTS == 0 && r.OrphanFTS == 0
}

// SearchQuery is a free-text lookup. Center, when set, orders hits by distance.
type SearchQuery struct {
	Text   string
	Limit  int
	Center *model.Coord
}

// NearbyQuery is a radius lookup around Center. Category filters on the main
// category when non-empty.
type NearbyQuery struct {
	Center   model.Coord
	RadiusM  float64
	Category string
	Limit    int
}

// CategoryTotal is the POI count of one main category.
type CategoryTotal struct {
	Main  string `json:"main_category"`
	Count int    `json:"count"`
}
