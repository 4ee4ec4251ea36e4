// Package pipeline drives a full store build: stream, extract, write,
// aggregate, stamp and verify.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Tang0602/Amap/internal/classify"
	"github.com/Tang0602/Amap/internal/extract"
	"github.com/Tang0602/Amap/internal/model"
	"github.com/Tang0602/Amap/internal/osmsource"
	"github.com/Tang0602/Amap/internal/store"
	"github.com/Tang0602/Amap/internal/writer"
)

// Generator identifies this tool in store metadata.
const Generator = "amap-poi"

// DefaultVersion is the store format version stamped into metadata.
const DefaultVersion = "1.0"

// progressEvery is the node interval between progress log lines.
const progressEvery = 100_000

// ErrIndexMismatch is returned when the secondary indexes disagree with the
// POI table after a build.
var ErrIndexMismatch = eris.New("pipeline: index mismatch")

// Options configures a build.
type Options struct {
	BatchSize  int
	SourceName string
	Extract    extract.Options
	Rules      *classify.Rules
	Version    string
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = writer.DefaultBatchSize
	}
	if o.Rules == nil {
		o.Rules = classify.Default()
	}
	if o.Version == "" {
		o.Version = DefaultVersion
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Result holds the final counts of a build.
type Result struct {
	RunID     string
	Nodes     int
	Ways      int
	Relations int
	Outcomes  map[extract.Outcome]int
	Written   int
	Batches   int
	Report    store.IndexReport
	Duration  time.Duration
}

// Empty reports whether the build produced no POIs. An empty build is a
// successful run, not an error.
func (r *Result) Empty() bool {
	return r.Written == 0
}

// Skipped returns the number of entities that did not yield a POI.
func (r *Result) Skipped() int {
	n := 0
	for o, c := range r.Outcomes {
		if o != extract.Accepted {
			n += c
		}
	}
	return n
}

// Run consumes src to the end and writes the extracted POIs to st. Each
// step runs only when the previous one succeeded. Entity-level problems are
// counted as skips; source, flush and store failures abort the run.
func Run(ctx context.Context, src osmsource.Source, st store.Store, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	start := opts.Now()

	res := &Result{
		RunID:    uuid.New().String(),
		Outcomes: make(map[extract.Outcome]int, len(extract.Outcomes())),
	}
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("run_id", res.RunID),
		zap.String("source", opts.SourceName),
	)
	log.Info("pipeline: starting build", zap.Int("batch_size", opts.BatchSize))

	w, err := writer.New(st, opts.BatchSize)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create writer")
	}
	x := extract.New(opts.Rules, opts.Extract)

	// Committed batches stay in the store, so every failure reports them.
	fail := func(err error, msg string) (*Result, error) {
		res.Written = w.Written()
		res.Batches = w.Batches()
		return res, eris.Wrap(err, msg)
	}

	for src.Next() {
		if err := ctx.Err(); err != nil {
			return fail(err, "pipeline: stream")
		}

		e := src.Entity()
		switch e.Kind {
		case model.KindNode:
			res.Nodes++
			if res.Nodes%progressEvery == 0 {
				fields := []zap.Field{
					zap.Int("nodes", res.Nodes),
					zap.Int("written", w.Written()+w.Buffered()),
				}
				if ids := w.LastIDs(); len(ids) > 0 {
					fields = append(fields, zap.Int64("last_id", ids[len(ids)-1]))
				}
				log.Info("pipeline: progress", fields...)
			}
		case model.KindWay:
			res.Ways++
		case model.KindRelation:
			res.Relations++
		}

		rec, outcome := x.Extract(e)
		res.Outcomes[outcome]++
		if outcome != extract.Accepted {
			continue
		}
		if err := w.Add(ctx, *rec); err != nil {
			return fail(err, "pipeline: write")
		}
	}
	if err := src.Err(); err != nil {
		return fail(err, "pipeline: read source")
	}

	if err := w.Close(ctx); err != nil {
		return fail(err, "pipeline: final flush")
	}
	res.Written = w.Written()
	res.Batches = w.Batches()

	if err := st.RecomputeAggregates(ctx); err != nil {
		return res, eris.Wrap(err, "pipeline: recompute aggregates")
	}

	md := model.Metadata{
		Version:    opts.Version,
		CreatedAt:  opts.Now(),
		SourceFile: opts.SourceName,
		POICount:   res.Written,
		Generator:  Generator,
		RunID:      res.RunID,
	}
	if err := st.StampMetadata(ctx, md); err != nil {
		return res, eris.Wrap(err, "pipeline: stamp metadata")
	}

	report, err := st.CheckIndexes(ctx)
	if err != nil {
		return res, eris.Wrap(err, "pipeline: check indexes")
	}
	res.Report = report
	if !report.Consistent() {
		return res, eris.Wrapf(ErrIndexMismatch,
			"poi=%d spatial=%d fts=%d", report.POIRows, report.SpatialRows, report.FTSRows)
	}

	res.Duration = opts.Now().Sub(start)
	log.Info("pipeline: build complete",
		zap.Int("nodes", res.Nodes),
		zap.Int("ways", res.Ways),
		zap.Int("relations", res.Relations),
		zap.Int("written", res.Written),
		zap.Int("skipped", res.Skipped()),
		zap.Int("batches", res.Batches),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}
