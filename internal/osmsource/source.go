// Package osmsource streams OpenStreetMap exports as raw entities.
package osmsource

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Tang0602/Amap/internal/model"
)

// ErrInputNotFound is returned by Open when the input path does not exist.
var ErrInputNotFound = eris.New("osmsource: input not found")

// Source is a forward-only stream of raw entities.
type Source interface {
	// Next advances to the next entity. It returns false at the end of the
	// stream or on error; check Err afterwards.
	Next() bool
	// Entity returns the current entity.
	Entity() model.RawEntity
	Err() error
	Close() error
}

// objectScanner is satisfied by both osmpbf.Scanner and osmxml.Scanner.
type objectScanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

// Open returns a Source for the file at path. ".pbf" files are decoded as
// protobuf, ".osm" and ".xml" as OSM XML.
func Open(ctx context.Context, path string) (Source, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(ErrInputNotFound, "%s", path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "osmsource: stat %s", path)
	}
	if info.IsDir() {
		return nil, eris.Errorf("osmsource: %s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "osmsource: open %s", path)
	}

	var sc objectScanner
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pbf":
		// One decoder goroutine keeps the stream in file order.
		sc = osmpbf.New(ctx, f, 1)
	case ".osm", ".xml":
		sc = osmxml.New(ctx, f)
	default:
		_ = f.Close()
		return nil, eris.Errorf("osmsource: unsupported input format %q", ext)
	}

	return newScanner(sc, f), nil
}

// scanner adapts an OSM object scanner to Source, resolving way member
// locations from the nodes seen earlier in the stream.
type scanner struct {
	sc        objectScanner
	file      *os.File
	locations *LocationIndex
	cur       model.RawEntity
	err       error
}

func newScanner(sc objectScanner, f *os.File) *scanner {
	return &scanner{sc: sc, file: f, locations: NewLocationIndex()}
}

func (s *scanner) Next() bool {
	for s.sc.Scan() {
		switch o := s.sc.Object().(type) {
		case *osm.Node:
			c := model.Coord{Lat: o.Lat, Lon: o.Lon}
			s.locations.Put(int64(o.ID), c)
			s.cur = model.RawEntity{
				ID:    int64(o.ID),
				Kind:  model.KindNode,
				Tags:  convertTags(o.Tags),
				Coord: &c,
			}
			return true
		case *osm.Way:
			s.cur = model.RawEntity{
				ID:      int64(o.ID),
				Kind:    model.KindWay,
				Tags:    convertTags(o.Tags),
				Members: s.resolve(o.Nodes),
			}
			return true
		case *osm.Relation:
			s.cur = model.RawEntity{
				ID:   int64(o.ID),
				Kind: model.KindRelation,
				Tags: convertTags(o.Tags),
			}
			return true
		}
	}
	if err := s.sc.Err(); err != nil {
		s.err = eris.Wrap(err, "osmsource: scan")
	}
	return false
}

func (s *scanner) Entity() model.RawEntity { return s.cur }

func (s *scanner) Err() error { return s.err }

func (s *scanner) Close() error {
	zap.L().Debug("osmsource: closing", zap.Int("indexed_nodes", s.locations.Len()))
	scErr := s.sc.Close()
	fErr := s.file.Close()
	if scErr != nil {
		return eris.Wrap(scErr, "osmsource: close scanner")
	}
	return eris.Wrap(fErr, "osmsource: close file")
}

// resolve attaches coordinates to way nodes. Locations embedded in the way
// (locations-on-ways exports) are used when the index has no entry.
func (s *scanner) resolve(nodes osm.WayNodes) []model.Member {
	members := make([]model.Member, len(nodes))
	for i, wn := range nodes {
		members[i].NodeID = int64(wn.ID)
		if c, ok := s.locations.Get(int64(wn.ID)); ok {
			members[i].Coord = &c
		} else if wn.Lat != 0 || wn.Lon != 0 {
			members[i].Coord = &model.Coord{Lat: wn.Lat, Lon: wn.Lon}
		}
	}
	return members
}

func convertTags(tags osm.Tags) model.Tags {
	if len(tags) == 0 {
		return nil
	}
	out := make(model.Tags, len(tags))
	for i, t := range tags {
		out[i] = model.Tag{Key: t.Key, Value: t.Value}
	}
	return out
}
