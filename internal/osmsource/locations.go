package osmsource

import "github.com/Tang0602/Amap/internal/model"

// LocationIndex remembers node coordinates so ways can be resolved in a
// single pass. OSM exports list all nodes before the ways that use them.
type LocationIndex struct {
	coords map[int64]model.Coord
}

// NewLocationIndex returns an empty index.
func NewLocationIndex() *LocationIndex {
	return &LocationIndex{coords: make(map[int64]model.Coord)}
}

// Put records the location of a node. Invalid coordinates are not stored, so
// members referring to them stay unresolved.
func (l *LocationIndex) Put(id int64, c model.Coord) {
	if !c.Valid() {
		return
	}
	l.coords[id] = c
}

// Get returns the location of a node.
func (l *LocationIndex) Get(id int64) (model.Coord, bool) {
	c, ok := l.coords[id]
	return c, ok
}

// Len returns the number of indexed nodes.
func (l *LocationIndex) Len() int {
	return len(l.coords)
}
