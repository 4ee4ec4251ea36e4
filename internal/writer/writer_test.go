package writer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tang0602/Amap/internal/model"
	"github.com/Tang0602/Amap/internal/store"
)

type fakeInserter struct {
	batches [][]model.POIRecord
	nextID  int64
	failOn  int // 1-based call number that fails; 0 never fails
	calls   int
}

func (f *fakeInserter) InsertBatch(_ context.Context, recs []model.POIRecord) ([]int64, error) {
	f.calls++
	if f.calls == f.failOn {
		return nil, errors.New("disk full")
	}
	f.batches = append(f.batches, append([]model.POIRecord(nil), recs...))
	ids := make([]int64, len(recs))
	for i := range recs {
		f.nextID++
		ids[i] = f.nextID
	}
	return ids, nil
}

func rec(i int) model.POIRecord {
	return model.POIRecord{
		OSMID:        int64(i),
		OSMType:      model.KindNode,
		Name:         fmt.Sprintf("POI %d", i),
		MainCategory: "Dining",
		SubCategory:  "Cafe",
		Lat:          30.5,
		Lon:          114.25,
	}
}

func TestNew_InvalidArgs(t *testing.T) {
	_, err := New(&fakeInserter{}, 0)
	assert.Error(t, err)

	_, err = New(&fakeInserter{}, -5)
	assert.Error(t, err)

	_, err = New(nil, 10)
	assert.Error(t, err)
}

func TestBatchWriter_FlushesAtThreshold(t *testing.T) {
	ctx := context.Background()
	ins := &fakeInserter{}
	w, err := New(ins, 3)
	require.NoError(t, err)

	for i := 1; i <= 7; i++ {
		require.NoError(t, w.Add(ctx, rec(i)))
	}
	assert.Equal(t, 2, w.Batches())
	assert.Equal(t, 6, w.Written())
	assert.Equal(t, 1, w.Buffered())

	require.NoError(t, w.Close(ctx))
	assert.Equal(t, 3, w.Batches())
	assert.Equal(t, 7, w.Written())
	assert.Equal(t, 0, w.Buffered())

	require.Len(t, ins.batches, 3)
	assert.Len(t, ins.batches[0], 3)
	assert.Len(t, ins.batches[1], 3)
	assert.Len(t, ins.batches[2], 1)
	assert.Equal(t, int64(7), ins.batches[2][0].OSMID)
	assert.Equal(t, []int64{7}, w.LastIDs())
}

func TestBatchWriter_EmptyFlushIsNoop(t *testing.T) {
	ctx := context.Background()
	ins := &fakeInserter{}
	w, err := New(ins, 10)
	require.NoError(t, err)

	require.NoError(t, w.Flush(ctx))
	require.NoError(t, w.Close(ctx))
	assert.Equal(t, 0, ins.calls)
	assert.Equal(t, 0, w.Batches())
}

func TestBatchWriter_FailureKeepsBuffer(t *testing.T) {
	ctx := context.Background()
	ins := &fakeInserter{failOn: 2}
	w, err := New(ins, 2)
	require.NoError(t, err)

	require.NoError(t, w.Add(ctx, rec(1)))
	require.NoError(t, w.Add(ctx, rec(2)))
	require.NoError(t, w.Add(ctx, rec(3)))

	err = w.Add(ctx, rec(4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 2, w.Written())
	assert.Equal(t, 2, w.Buffered())

	// The retained batch goes through on the next flush.
	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, 4, w.Written())
	assert.Equal(t, int64(3), ins.batches[1][0].OSMID)
}

func TestBatchWriter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ins := &fakeInserter{}
	w, err := New(ins, 10)
	require.NoError(t, err)
	require.NoError(t, w.Add(ctx, rec(1)))

	cancel()
	err = w.Close(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), context.Canceled.Error())
	assert.Equal(t, 0, ins.calls)
	assert.Equal(t, 1, w.Buffered())
}

func TestBatchWriter_BatchSizeDoesNotChangeResult(t *testing.T) {
	ctx := context.Background()

	names := func(batchSize int) []string {
		st, err := store.NewSQLite(filepath.Join(t.TempDir(), "poi.db"))
		require.NoError(t, err)
		defer st.Close() //nolint:errcheck
		require.NoError(t, st.Migrate(ctx))

		w, err := New(st, batchSize)
		require.NoError(t, err)
		for i := 1; i <= 25; i++ {
			require.NoError(t, w.Add(ctx, rec(i)))
		}
		require.NoError(t, w.Close(ctx))

		report, err := st.CheckIndexes(ctx)
		require.NoError(t, err)
		assert.True(t, report.Consistent())
		assert.Equal(t, 25, report.POIRows)

		var out []string
		for id := int64(1); id <= 25; id++ {
			r, err := st.Get(ctx, id)
			require.NoError(t, err)
			out = append(out, r.Name)
		}
		return out
	}

	assert.Equal(t, names(1), names(10000))
	assert.Equal(t, names(1), names(7))
}
