package osmsource

import "github.com/Tang0602/Amap/internal/model"

// SliceSource serves entities from memory.
type SliceSource struct {
	entities []model.RawEntity
	pos      int
	closed   bool
}

// NewSlice returns a Source over entities.
func NewSlice(entities ...model.RawEntity) *SliceSource {
	return &SliceSource{entities: entities, pos: -1}
}

func (s *SliceSource) Next() bool {
	if s.closed || s.pos+1 >= len(s.entities) {
		return false
	}
	s.pos++
	return true
}

func (s *SliceSource) Entity() model.RawEntity { return s.entities[s.pos] }

func (s *SliceSource) Err() error { return nil }

func (s *SliceSource) Close() error {
	s.closed = true
	return nil
}
