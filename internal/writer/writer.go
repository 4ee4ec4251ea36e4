// Package writer buffers POI records and writes them to the store in
// fixed-size transactional batches.
package writer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Tang0602/Amap/internal/model"
	"github.com/Tang0602/Amap/internal/store"
)

// DefaultBatchSize is the number of records written per transaction.
const DefaultBatchSize = 1000

// BatchWriter accumulates records and flushes them through an Inserter.
// It is not safe for concurrent use.
type BatchWriter struct {
	inserter  store.Inserter
	batchSize int
	buf       []model.POIRecord

	written int
	batches int
	lastIDs []int64
	log     *zap.Logger
}

// New returns a writer that flushes every batchSize records.
func New(inserter store.Inserter, batchSize int) (*BatchWriter, error) {
	if inserter == nil {
		return nil, eris.New("writer: nil inserter")
	}
	if batchSize < 1 {
		return nil, eris.Errorf("writer: batch size must be positive, got %d", batchSize)
	}
	return &BatchWriter{
		inserter:  inserter,
		batchSize: batchSize,
		buf:       make([]model.POIRecord, 0, batchSize),
		log:       zap.L().With(zap.String("component", "writer")),
	}, nil
}

// Add buffers rec and flushes when the buffer reaches the batch size.
func (w *BatchWriter) Add(ctx context.Context, rec model.POIRecord) error {
	w.buf = append(w.buf, rec)
	if len(w.buf) >= w.batchSize {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes the buffered records in one transaction. The buffer is kept
// when the write fails.
func (w *BatchWriter) Flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "writer: flush")
	}

	ids, err := w.inserter.InsertBatch(ctx, w.buf)
	if err != nil {
		return eris.Wrapf(err, "writer: flush batch %d (%d records)", w.batches+1, len(w.buf))
	}
	if len(ids) != len(w.buf) {
		return eris.Errorf("writer: store returned %d ids for %d records", len(ids), len(w.buf))
	}

	w.written += len(w.buf)
	w.batches++
	w.lastIDs = ids
	w.log.Debug("batch flushed",
		zap.Int("batch", w.batches),
		zap.Int("records", len(w.buf)),
		zap.Int("written", w.written),
	)
	w.buf = w.buf[:0]
	return nil
}

// Close flushes the remaining records.
func (w *BatchWriter) Close(ctx context.Context) error {
	return w.Flush(ctx)
}

// Written returns the number of committed records.
func (w *BatchWriter) Written() int { return w.written }

// Batches returns the number of committed batches.
func (w *BatchWriter) Batches() int { return w.batches }

// Buffered returns the number of records awaiting a flush.
func (w *BatchWriter) Buffered() int { return len(w.buf) }

// LastIDs returns the identifiers assigned to the most recent batch.
func (w *BatchWriter) LastIDs() []int64 { return w.lastIDs }
