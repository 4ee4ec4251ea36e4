// Package extract turns raw OSM entities into POI records.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/Tang0602/Amap/internal/classify"
	"github.com/Tang0602/Amap/internal/model"
)

// Outcome is the result of extracting one entity.
type Outcome int

// Extraction outcomes. Everything other than Accepted means no record.
const (
	Accepted Outcome = iota
	SkipNoTags
	SkipNoName
	SkipNoCategory
	SkipNoLocation
	SkipInvalid
	Unsupported
)

var outcomeNames = [...]string{
	Accepted:       "accepted",
	SkipNoTags:     "no_tags",
	SkipNoName:     "no_name",
	SkipNoCategory: "no_category",
	SkipNoLocation: "no_location",
	SkipInvalid:    "invalid",
	Unsupported:    "unsupported",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// Outcomes lists every outcome in declaration order.
func Outcomes() []Outcome {
	return []Outcome{Accepted, SkipNoTags, SkipNoName, SkipNoCategory, SkipNoLocation, SkipInvalid, Unsupported}
}

// Defaults.
const (
	DefaultTagsMaxLen        = 500
	DefaultHouseNumberSuffix = "号"
)

// Options configures an Extractor.
type Options struct {
	// TagsMaxLen bounds the serialized tag snapshot in bytes.
	TagsMaxLen int
	// HouseNumberSuffix is appended to addr:housenumber in the address.
	HouseNumberSuffix string
}

// DefaultOptions returns the options matching the built-in behavior.
func DefaultOptions() Options {
	return Options{
		TagsMaxLen:        DefaultTagsMaxLen,
		HouseNumberSuffix: DefaultHouseNumberSuffix,
	}
}

// Extractor derives POI records from raw entities.
type Extractor struct {
	rules *classify.Rules
	opts  Options
}

// New creates an Extractor. A nil rules table uses classify.Default().
func New(rules *classify.Rules, opts Options) *Extractor {
	if rules == nil {
		rules = classify.Default()
	}
	if opts.TagsMaxLen <= 0 {
		opts.TagsMaxLen = DefaultTagsMaxLen
	}
	return &Extractor{rules: rules, opts: opts}
}

// Name keys in priority order.
var nameKeys = []string{"name", "name:zh", "name:en"}

// Address keys in output order. The house number gets the configured suffix.
var addressKeys = []string{"addr:province", "addr:city", "addr:district", "addr:street"}

// Extract builds a record for e. A fault inside a single entity never escapes:
// it is reported as SkipInvalid.
func (x *Extractor) Extract(e model.RawEntity) (rec *model.POIRecord, out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Debug("extract: recovered entity fault",
				zap.Int64("osm_id", e.ID),
				zap.String("kind", string(e.Kind)),
				zap.Any("panic", r),
			)
			rec, out = nil, SkipInvalid
		}
	}()

	switch e.Kind {
	case model.KindNode:
		return x.extractNode(e)
	case model.KindWay:
		return x.extractWay(e)
	case model.KindRelation:
		return nil, Unsupported
	default:
		return nil, SkipInvalid
	}
}

func (x *Extractor) extractNode(e model.RawEntity) (*model.POIRecord, Outcome) {
	rec, out := x.build(e)
	if out != Accepted {
		return nil, out
	}
	if e.Coord == nil || !e.Coord.Valid() {
		return nil, SkipInvalid
	}
	rec.Lat, rec.Lon = e.Coord.Lat, e.Coord.Lon
	return rec, Accepted
}

func (x *Extractor) extractWay(e model.RawEntity) (*model.POIRecord, Outcome) {
	rec, out := x.build(e)
	if out != Accepted {
		return nil, out
	}
	c, ok := Centroid(e.Members)
	if !ok {
		return nil, SkipNoLocation
	}
	rec.Lat, rec.Lon = c.Lat, c.Lon
	return rec, Accepted
}

// Centroid returns the unweighted mean of the members that carry a valid
// coordinate. Members without one count toward neither sum nor total.
func Centroid(members []model.Member) (model.Coord, bool) {
	flat := make([]float64, 0, len(members)*2)
	for _, m := range members {
		if m.Coord == nil || !m.Coord.Valid() {
			continue
		}
		flat = append(flat, m.Coord.Lon, m.Coord.Lat)
	}
	if len(flat) == 0 {
		return model.Coord{}, false
	}

	c := xy.MultiPointCentroid(geom.NewMultiPointFlat(geom.XY, flat))
	return model.Coord{Lat: c.Y(), Lon: c.X()}, true
}

// build applies the shared rejection rules and fills every field except the
// coordinate.
func (x *Extractor) build(e model.RawEntity) (*model.POIRecord, Outcome) {
	if len(e.Tags) == 0 {
		return nil, SkipNoTags
	}

	name := displayName(e.Tags)
	if name == "" {
		return nil, SkipNoName
	}

	cat, ok := x.rules.Classify(e.Tags)
	if !ok {
		return nil, SkipNoCategory
	}

	return &model.POIRecord{
		OSMID:        e.ID,
		OSMType:      e.Kind,
		Name:         name,
		NameEN:       e.Tags.Value("name:en"),
		MainCategory: cat.Main,
		SubCategory:  cat.Sub,
		Address:      x.address(e.Tags),
		Phone:        firstOf(e.Tags, "phone", "contact:phone"),
		Website:      firstOf(e.Tags, "website", "contact:website"),
		OpeningHours: firstOf(e.Tags, "opening_hours"),
		Description:  firstOf(e.Tags, "description"),
		Rating:       ParseRating(e.Tags),
		Tags:         Snapshot(e.Tags, x.opts.TagsMaxLen),
	}, Accepted
}

func displayName(tags model.Tags) string {
	for _, key := range nameKeys {
		if v := strings.TrimSpace(tags.Value(key)); v != "" {
			return norm.NFC.String(v)
		}
	}
	return ""
}

func (x *Extractor) address(tags model.Tags) *string {
	var b strings.Builder
	for _, key := range addressKeys {
		b.WriteString(tags.Value(key))
	}
	if hn := tags.Value("addr:housenumber"); hn != "" {
		b.WriteString(hn)
		b.WriteString(x.opts.HouseNumberSuffix)
	}
	if b.Len() == 0 {
		return nil
	}
	s := b.String()
	return &s
}

// firstOf returns the first non-empty value among keys.
func firstOf(tags model.Tags, keys ...string) *string {
	for _, key := range keys {
		if v := tags.Value(key); v != "" {
			return &v
		}
	}
	return nil
}

// Snapshot serializes tags as a JSON object in source order, truncated to at
// most maxLen bytes without splitting a UTF-8 sequence.
func Snapshot(tags model.Tags, maxLen int) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, tag := range tags {
		if i > 0 {
			b.WriteString(", ")
		}
		writeJSONString(&b, tag.Key)
		b.WriteString(": ")
		writeJSONString(&b, tag.Value)
	}
	b.WriteByte('}')
	return truncate(b.String(), maxLen)
}

// writeJSONString writes s as a JSON string literal. HTML characters are
// kept as is.
func writeJSONString(b *strings.Builder, s string) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	b.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
