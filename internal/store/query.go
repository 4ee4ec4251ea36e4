package store

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/Tang0602/Amap/internal/geo"
	"github.com/Tang0602/Amap/internal/model"
)

// DefaultLimit caps result sets when the caller passes no limit.
const DefaultLimit = 20

const poiColumns = `p.id, p.osm_id, p.osm_type, p.name, p.name_en, p.main_category, p.sub_category,
	p.lat, p.lon, p.address, p.phone, p.website, p.opening_hours, p.description, p.rating, p.tags`

// spatialPOIColumns reads the coordinate from the spatial index instead of poi.
const spatialPOIColumns = `p.id, p.osm_id, p.osm_type, p.name, p.name_en, p.main_category, p.sub_category,
	r.lat, r.lon, p.address, p.phone, p.website, p.opening_hours, p.description, p.rating, p.tags`

type scannable interface {
	Scan(dest ...any) error
}

func scanPOI(row scannable) (*model.POIRecord, error) {
	var (
		r                                        model.POIRecord
		osmType                                  string
		nameEN, addr, phone, web, hours, desc, t sql.NullString
		rating                                   sql.NullFloat64
	)
	err := row.Scan(&r.ID, &r.OSMID, &osmType, &r.Name, &nameEN, &r.MainCategory, &r.SubCategory,
		&r.Lat, &r.Lon, &addr, &phone, &web, &hours, &desc, &rating, &t)
	if err != nil {
		return nil, err
	}
	r.OSMType = model.EntityKind(osmType)
	r.NameEN = nameEN.String
	r.Address = stringPtr(addr)
	r.Phone = stringPtr(phone)
	r.Website = stringPtr(web)
	r.OpeningHours = stringPtr(hours)
	r.Description = stringPtr(desc)
	r.Rating = floatPtr(rating)
	r.Tags = t.String
	return &r, nil
}

func (s *SQLiteStore) queryPOIs(ctx context.Context, query string, args ...any) ([]model.POIResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.POIResult
	for rows.Next() {
		r, err := scanPOI(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, model.POIResult{POIRecord: *r})
	}
	return out, rows.Err()
}

// Get returns the POI with the given identifier.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.POIRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+poiColumns+` FROM poi p WHERE p.id = ?`, id)
	r, err := scanPOI(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "poi %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get poi %d", id)
	}
	return r, nil
}

// Count returns the number of POI rows.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM poi`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count poi")
}

// SpatialEntry returns the spatial index entry of a POI as the degenerate
// box of its exact coordinate.
func (s *SQLiteStore) SpatialEntry(ctx context.Context, id int64) (*model.SpatialEntry, error) {
	var e model.SpatialEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT id, lat, lon FROM poi_rtree WHERE id = ?`, id,
	).Scan(&e.ID, &e.MinLat, &e.MinLon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "spatial entry %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get spatial entry %d", id)
	}
	e.MaxLat, e.MaxLon = e.MinLat, e.MinLon
	return &e, nil
}

// Geometry returns the stored point geometry of a POI.
func (s *SQLiteStore) Geometry(ctx context.Context, id int64) (*geom.Point, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT geom FROM poi WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "poi %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get geometry %d", id)
	}
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode geometry %d", id)
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return nil, eris.Errorf("sqlite: geometry %d is %T, not a point", id, g)
	}
	return p, nil
}

// Search looks up POIs by text. Full-text prefix matches come first; when
// they do not fill the limit, substring matches on name and address are
// appended. With a center, hits are ordered by distance.
func (s *SQLiteStore) Search(ctx context.Context, q SearchQuery) ([]model.POIResult, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, eris.New("sqlite: empty search text")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	results, err := s.queryPOIs(ctx, `
		SELECT `+poiColumns+`
		FROM poi p
		JOIN poi_fts f ON p.id = f.rowid
		WHERE poi_fts MATCH ?
		ORDER BY f.rank
		LIMIT ?`, ftsPrefix(text), limit*2)
	if err != nil {
		// Malformed match expressions fall back to substring search.
		zap.L().Debug("sqlite: fts search failed, using LIKE", zap.String("text", text), zap.Error(err))
		results = nil
	}

	if len(results) < limit {
		like, err := s.searchLike(ctx, text, limit-len(results), results)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: like search")
		}
		results = append(results, like...)
	}

	if q.Center != nil {
		withDistance(results, *q.Center)
		sortByDistance(results)
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *SQLiteStore) searchLike(ctx context.Context, text string, limit int, exclude []model.POIResult) ([]model.POIResult, error) {
	query := `SELECT ` + poiColumns + ` FROM poi p WHERE (p.name LIKE ? ESCAPE '\' OR p.address LIKE ? ESCAPE '\')`
	pattern := "%" + escapeLike(text) + "%"
	args := []any{pattern, pattern}
	if len(exclude) > 0 {
		query += ` AND p.id NOT IN (?` + strings.Repeat(",?", len(exclude)-1) + `)`
		for _, r := range exclude {
			args = append(args, r.ID)
		}
	}
	query += ` ORDER BY p.id LIMIT ?`
	args = append(args, limit)
	return s.queryPOIs(ctx, query, args...)
}

// Nearby returns POIs within the (clamped) radius of the center, closest first.
func (s *SQLiteStore) Nearby(ctx context.Context, q NearbyQuery) ([]model.POIResult, error) {
	if !q.Center.Valid() {
		return nil, eris.Errorf("sqlite: invalid center %v", q.Center)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	radius := geo.ClampRadius(q.RadiusM, geo.DefaultRadiusMeters, geo.MinRadiusMeters, geo.MaxRadiusMeters)

	// The float32 box prunes; distances use the exact coordinate.
	query := `
		SELECT ` + spatialPOIColumns + `
		FROM poi p
		JOIN poi_rtree r ON r.id = p.id
		WHERE r.max_lat >= ? AND r.min_lat <= ?
		  AND r.max_lon >= ? AND r.min_lon <= ?`
	if q.Category != "" {
		query += ` AND p.main_category = ?`
	}

	var candidates []model.POIResult
	seen := make(map[int64]bool)
	for _, b := range geo.SearchBounds(q.Center, radius) {
		args := []any{b.Min.Lat(), b.Max.Lat(), b.Min.Lon(), b.Max.Lon()}
		if q.Category != "" {
			args = append(args, q.Category)
		}
		hits, err := s.queryPOIs(ctx, query, args...)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: nearby")
		}
		for _, h := range hits {
			if !seen[h.ID] {
				seen[h.ID] = true
				candidates = append(candidates, h)
			}
		}
	}

	withDistance(candidates, q.Center)
	results := candidates[:0]
	for _, c := range candidates {
		if *c.Distance <= radius {
			results = append(results, c)
		}
	}
	sortByDistance(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ByCategory returns POIs of a main category. With a center, the closest
// ones are returned, ordered by distance.
func (s *SQLiteStore) ByCategory(ctx context.Context, main string, center *model.Coord, limit int) ([]model.POIResult, error) {
	if strings.TrimSpace(main) == "" {
		return nil, eris.New("sqlite: empty category")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		results []model.POIResult
		err     error
	)
	if center == nil {
		results, err = s.queryPOIs(ctx,
			`SELECT `+poiColumns+` FROM poi p WHERE p.main_category = ? ORDER BY p.id LIMIT ?`, main, limit)
	} else {
		// Planar ordering picks the candidates; haversine orders the result.
		results, err = s.queryPOIs(ctx, `
			SELECT `+poiColumns+`
			FROM poi p
			WHERE p.main_category = ?
			ORDER BY (p.lat - ?) * (p.lat - ?) + (p.lon - ?) * (p.lon - ?)
			LIMIT ?`, main, center.Lat, center.Lat, center.Lon, center.Lon, limit)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: by category")
	}
	if center != nil {
		withDistance(results, *center)
		sortByDistance(results)
	}
	return results, nil
}

// CategoryCounts returns the aggregate table, largest first.
func (s *SQLiteStore) CategoryCounts(ctx context.Context) ([]model.CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT main_category, sub_category, count
		FROM category_stats
		ORDER BY count DESC, main_category, sub_category`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: category counts")
	}
	defer rows.Close()

	var out []model.CategoryCount
	for rows.Next() {
		var c model.CategoryCount
		if err := rows.Scan(&c.Main, &c.Sub, &c.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan category count")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: category counts iterate")
}

// CategoryTotals sums the aggregate table per main category, largest first.
func (s *SQLiteStore) CategoryTotals(ctx context.Context) ([]CategoryTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT main_category, SUM(count) AS total
		FROM category_stats
		GROUP BY main_category
		ORDER BY total DESC, main_category`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: category totals")
	}
	defer rows.Close()

	var out []CategoryTotal
	for rows.Next() {
		var c CategoryTotal
		if err := rows.Scan(&c.Main, &c.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan category total")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: category totals iterate")
}

// Metadata returns all provenance rows.
func (s *SQLiteStore) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM metadata`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: metadata")
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k string
		var v sql.NullString
		if err := rows.Scan(&k, &v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metadata")
		}
		out[k] = v.String
	}
	return out, eris.Wrap(rows.Err(), "sqlite: metadata iterate")
}

// ftsPrefix quotes text as a single FTS5 phrase with a prefix marker.
func ftsPrefix(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"*`
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func withDistance(results []model.POIResult, center model.Coord) {
	for i := range results {
		d := geo.Distance(center, results[i].Coord())
		results[i].Distance = &d
	}
}

func sortByDistance(results []model.POIResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].Distance < *results[j].Distance
	})
}
