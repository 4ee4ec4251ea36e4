package model

import "math"

// EntityKind identifies the OSM element type a raw entity came from.
type EntityKind string

// Entity kinds.
const (
	KindNode     EntityKind = "node"
	KindWay      EntityKind = "way"
	KindRelation EntityKind = "relation"
)

// Coord is a WGS84 latitude/longitude pair.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate is finite and inside the WGS84 range.
func (c Coord) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Tag is a single key/value attribute.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Tags is an ordered attribute list, kept in source enumeration order.
type Tags []Tag

// Get returns the value for key and whether it was present.
func (t Tags) Get(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Value returns the value for key, or "" when absent.
func (t Tags) Value(key string) string {
	v, _ := t.Get(key)
	return v
}

// Member is a way member node. Coord is nil when the node location could not be resolved.
type Member struct {
	NodeID int64  `json:"node_id"`
	Coord  *Coord `json:"coord,omitempty"`
}

// RawEntity is one element of the source stream before extraction.
// Nodes carry Coord; ways carry Members; relations carry neither.
type RawEntity struct {
	ID      int64      `json:"id"`
	Kind    EntityKind `json:"kind"`
	Tags    Tags       `json:"tags"`
	Coord   *Coord     `json:"coord,omitempty"`
	Members []Member   `json:"members,omitempty"`
}
