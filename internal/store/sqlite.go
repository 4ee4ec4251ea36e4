package store

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	_ "modernc.org/sqlite"

	"github.com/Tang0602/Amap/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection and flushes assume exclusive access.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Create replaces any database at path with a new, migrated one.
func Create(ctx context.Context, path string) (*SQLiteStore, error) {
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(err, "sqlite: remove %s", p)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "sqlite: create dir %s", dir)
		}
	}

	st, err := NewSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// Both secondary indexes are derived from poi by triggers, so a committed
// poi row always carries its FTS row and its R*Tree row.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS poi (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	osm_id        INTEGER NOT NULL,
	osm_type      TEXT NOT NULL,
	name          TEXT NOT NULL CHECK (name <> ''),
	name_en       TEXT,
	main_category TEXT NOT NULL CHECK (main_category <> ''),
	sub_category  TEXT NOT NULL DEFAULT '',
	lat           REAL NOT NULL,
	lon           REAL NOT NULL,
	address       TEXT,
	phone         TEXT,
	website       TEXT,
	opening_hours TEXT,
	description   TEXT,
	rating        REAL,
	tags          TEXT,
	geom          BLOB,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE VIRTUAL TABLE IF NOT EXISTS poi_fts USING fts5(
	name,
	name_en,
	main_category,
	sub_category,
	address,
	content='poi',
	content_rowid='id',
	tokenize='unicode61'
);

-- The box is stored as float32 rounded outward and only prunes range scans.
-- The auxiliary columns keep the exact coordinate.
CREATE VIRTUAL TABLE IF NOT EXISTS poi_rtree USING rtree(
	id,
	min_lat, max_lat,
	min_lon, max_lon,
	+lat REAL,
	+lon REAL
);

CREATE TRIGGER IF NOT EXISTS poi_ai AFTER INSERT ON poi BEGIN
	INSERT INTO poi_fts(rowid, name, name_en, main_category, sub_category, address)
	VALUES (new.id, new.name, new.name_en, new.main_category, new.sub_category, new.address);
	INSERT INTO poi_rtree(id, min_lat, max_lat, min_lon, max_lon, lat, lon)
	VALUES (new.id, new.lat, new.lat, new.lon, new.lon, new.lat, new.lon);
END;

CREATE TRIGGER IF NOT EXISTS poi_ad AFTER DELETE ON poi BEGIN
	INSERT INTO poi_fts(poi_fts, rowid, name, name_en, main_category, sub_category, address)
	VALUES ('delete', old.id, old.name, old.name_en, old.main_category, old.sub_category, old.address);
	DELETE FROM poi_rtree WHERE id = old.id;
END;

CREATE TRIGGER IF NOT EXISTS poi_au AFTER UPDATE ON poi BEGIN
	INSERT INTO poi_fts(poi_fts, rowid, name, name_en, main_category, sub_category, address)
	VALUES ('delete', old.id, old.name, old.name_en, old.main_category, old.sub_category, old.address);
	INSERT INTO poi_fts(rowid, name, name_en, main_category, sub_category, address)
	VALUES (new.id, new.name, new.name_en, new.main_category, new.sub_category, new.address);
	DELETE FROM poi_rtree WHERE id = old.id;
	INSERT INTO poi_rtree(id, min_lat, max_lat, min_lon, max_lon, lat, lon)
	VALUES (new.id, new.lat, new.lat, new.lon, new.lon, new.lat, new.lon);
END;

CREATE INDEX IF NOT EXISTS idx_poi_category ON poi(main_category, sub_category);
CREATE INDEX IF NOT EXISTS idx_poi_name ON poi(name);

CREATE TABLE IF NOT EXISTS category_stats (
	main_category TEXT NOT NULL,
	sub_category  TEXT NOT NULL DEFAULT '',
	count         INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (main_category, sub_category)
);

CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT
);
`

// Migrate creates the schema. It is safe to run more than once.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const insertPOI = `
INSERT INTO poi (
	osm_id, osm_type, name, name_en, main_category, sub_category,
	lat, lon, address, phone, website, opening_hours, description, rating, tags, geom
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

// InsertBatch writes recs in one transaction. Either every record is
// committed with its index rows or none is.
func (s *SQLiteStore) InsertBatch(ctx context.Context, recs []model.POIRecord) ([]int64, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin batch")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertPOI)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare insert poi")
	}
	defer stmt.Close() //nolint:errcheck

	ids := make([]int64, 0, len(recs))
	for i := range recs {
		r := &recs[i]
		g, err := encodePoint(r.Lat, r.Lon)
		if err != nil {
			return nil, err
		}

		var id int64
		err = stmt.QueryRowContext(ctx,
			r.OSMID, string(r.OSMType), r.Name, nullEmpty(r.NameEN), r.MainCategory, r.SubCategory,
			r.Lat, r.Lon, nullString(r.Address), nullString(r.Phone), nullString(r.Website),
			nullString(r.OpeningHours), nullString(r.Description), nullFloat(r.Rating), r.Tags, g,
		).Scan(&id)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert poi osm %s/%d", r.OSMType, r.OSMID)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit batch")
	}
	return ids, nil
}

// RecomputeAggregates replaces category_stats with counts from poi.
func (s *SQLiteStore) RecomputeAggregates(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin aggregates")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM category_stats`); err != nil {
		return eris.Wrap(err, "sqlite: clear category stats")
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO category_stats (main_category, sub_category, count)
		SELECT main_category, sub_category, COUNT(*)
		FROM poi
		GROUP BY main_category, sub_category`)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert category stats")
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit aggregates")
}

// Metadata keys.
const (
	MetaVersion    = "version"
	MetaCreatedAt  = "created_at"
	MetaSourceFile = "source_file"
	MetaPOICount   = "poi_count"
	MetaGenerator  = "generator"
	MetaRunID      = "run_id"
)

// StampMetadata writes the provenance rows, overwriting previous values.
func (s *SQLiteStore) StampMetadata(ctx context.Context, md model.Metadata) error {
	rows := [][2]string{
		{MetaVersion, md.Version},
		{MetaCreatedAt, md.CreatedAt.UTC().Format(time.RFC3339)},
		{MetaSourceFile, md.SourceFile},
		{MetaPOICount, strconv.Itoa(md.POICount)},
		{MetaGenerator, md.Generator},
		{MetaRunID, md.RunID},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin metadata")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, kv := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, kv[0], kv[1],
		); err != nil {
			return eris.Wrapf(err, "sqlite: write metadata %s", kv[0])
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit metadata")
}

// CheckIndexes counts rows and orphans in the POI table and both indexes.
// The FTS side is read from the fts5 docsize shadow table, which holds one
// row per indexed document.
func (s *SQLiteStore) CheckIndexes(ctx context.Context) (IndexReport, error) {
	var r IndexReport
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM poi),
			(SELECT COUNT(*) FROM poi_rtree),
			(SELECT COUNT(*) FROM poi_fts_docsize),
			(SELECT COUNT(*) FROM poi p WHERE NOT EXISTS (SELECT 1 FROM poi_rtree r WHERE r.id = p.id)),
			(SELECT COUNT(*) FROM poi_rtree r WHERE NOT EXISTS (SELECT 1 FROM poi p WHERE p.id = r.id)),
			(SELECT COUNT(*) FROM poi p WHERE NOT EXISTS (SELECT 1 FROM poi_fts_docsize d WHERE d.id = p.id)),
			(SELECT COUNT(*) FROM poi_fts_docsize d WHERE NOT EXISTS (SELECT 1 FROM poi p WHERE p.id = d.id))
	`).Scan(&r.POIRows, &r.SpatialRows, &r.FTSRows,
		&r.MissingSpatial, &r.OrphanSpatial, &r.MissingFTS, &r.OrphanFTS)
	if err != nil {
		return IndexReport{}, eris.Wrap(err, "sqlite: check indexes")
	}
	return r, nil
}

// Delete removes a POI. Triggers drop its index rows.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM poi WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete poi %d", id)
	}
	return checkRowsAffected(res, "poi", strconv.FormatInt(id, 10))
}

// encodePoint returns the EWKB encoding of a WGS84 point.
func encodePoint(lat, lon float64) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: encode point")
	}
	return data, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
