package osmsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tang0602/Amap/internal/model"
)

const sampleOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="30.5" lon="114.25" version="1">
    <tag k="amenity" v="restaurant"/>
    <tag k="name" v="Joe's Diner"/>
  </node>
  <node id="2" lat="30.0" lon="114.0" version="1"/>
  <node id="3" lat="31.0" lon="115.0" version="1"/>
  <way id="10" version="1">
    <nd ref="2"/>
    <nd ref="3"/>
    <nd ref="99"/>
    <tag k="leisure" v="park"/>
    <tag k="name" v="East Lake Park"/>
  </way>
  <relation id="20" version="1">
    <member type="way" ref="10" role="outer"/>
    <tag k="amenity" v="university"/>
    <tag k="name" v="Campus"/>
  </relation>
</osm>
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func collect(t *testing.T, src Source) []model.RawEntity {
	t.Helper()
	var out []model.RawEntity
	for src.Next() {
		out = append(out, src.Entity())
	}
	require.NoError(t, src.Err())
	return out
}

func TestOpen_XML(t *testing.T) {
	path := writeFile(t, "sample.osm", sampleOSM)

	src, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer src.Close() //nolint:errcheck

	entities := collect(t, src)
	require.Len(t, entities, 5)

	first := entities[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, model.KindNode, first.Kind)
	require.NotNil(t, first.Coord)
	assert.Equal(t, 30.5, first.Coord.Lat)
	assert.Equal(t, 114.25, first.Coord.Lon)
	assert.Equal(t, "Joe's Diner", first.Tags.Value("name"))
	assert.Equal(t, "amenity", first.Tags[0].Key)

	assert.Empty(t, entities[1].Tags)

	w := entities[3]
	assert.Equal(t, model.KindWay, w.Kind)
	require.Len(t, w.Members, 3)
	require.NotNil(t, w.Members[0].Coord)
	assert.Equal(t, model.Coord{Lat: 30.0, Lon: 114.0}, *w.Members[0].Coord)
	require.NotNil(t, w.Members[1].Coord)
	assert.Nil(t, w.Members[2].Coord, "node 99 is not in the file")

	r := entities[4]
	assert.Equal(t, model.KindRelation, r.Kind)
	assert.Equal(t, int64(20), r.ID)
	assert.Equal(t, "Campus", r.Tags.Value("name"))
}

func TestOpen_PBF(t *testing.T) {
	src, err := Open(context.Background(), filepath.Join("testdata", "sample.osm.pbf"))
	require.NoError(t, err)
	defer src.Close() //nolint:errcheck

	entities := collect(t, src)
	require.Len(t, entities, 5)

	first := entities[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, model.KindNode, first.Kind)
	require.NotNil(t, first.Coord)
	assert.InDelta(t, 30.5, first.Coord.Lat, 1e-7)
	assert.InDelta(t, 114.25, first.Coord.Lon, 1e-7)
	assert.Equal(t, "Joe's Diner", first.Tags.Value("name"))
	assert.Equal(t, "amenity", first.Tags[0].Key)

	assert.Empty(t, entities[1].Tags)
	assert.Equal(t, int64(3), entities[2].ID)

	w := entities[3]
	assert.Equal(t, model.KindWay, w.Kind)
	assert.Equal(t, int64(10), w.ID)
	assert.Equal(t, "East Lake Park", w.Tags.Value("name"))
	require.Len(t, w.Members, 3)
	assert.Equal(t, int64(2), w.Members[0].NodeID)
	require.NotNil(t, w.Members[0].Coord)
	assert.InDelta(t, 30.0, w.Members[0].Coord.Lat, 1e-7)
	assert.InDelta(t, 114.0, w.Members[0].Coord.Lon, 1e-7)
	require.NotNil(t, w.Members[1].Coord)
	assert.Equal(t, int64(99), w.Members[2].NodeID)
	assert.Nil(t, w.Members[2].Coord, "node 99 is not in the file")

	r := entities[4]
	assert.Equal(t, model.KindRelation, r.Kind)
	assert.Equal(t, int64(20), r.ID)
	assert.Equal(t, "Campus", r.Tags.Value("name"))
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.osm.pbf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputNotFound))
}

func TestOpen_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "data.csv", "a,b\n")
	_, err := Open(context.Background(), path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInputNotFound))
}

func TestOpen_Directory(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestLocationIndex(t *testing.T) {
	idx := NewLocationIndex()
	idx.Put(1, model.Coord{Lat: 1, Lon: 2})
	idx.Put(2, model.Coord{Lat: 100, Lon: 2})

	c, ok := idx.Get(1)
	require.True(t, ok)
	assert.Equal(t, model.Coord{Lat: 1, Lon: 2}, c)

	_, ok = idx.Get(2)
	assert.False(t, ok, "invalid coordinates are not indexed")
	assert.Equal(t, 1, idx.Len())
}

func TestSliceSource(t *testing.T) {
	src := NewSlice(
		model.RawEntity{ID: 1, Kind: model.KindNode},
		model.RawEntity{ID: 2, Kind: model.KindWay},
	)
	entities := collect(t, src)
	require.Len(t, entities, 2)
	assert.Equal(t, int64(2), entities[1].ID)
	assert.False(t, src.Next())

	closed := NewSlice(model.RawEntity{ID: 1})
	require.NoError(t, closed.Close())
	assert.False(t, closed.Next(), "a closed source yields nothing")

	empty := NewSlice()
	assert.False(t, empty.Next())
}
