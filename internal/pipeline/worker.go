// Package pipeline implements the chunk producer, worker pool and
// orchestrator: it owns the INDEX/DATA mmap windows, fills batches of
// RecordRefs, and drives a fixed worker pool whose per-field
// statistics are merged back after each batch join.
package pipeline

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ryftone/caggs/internal/aggregate"
	"github.com/ryftone/caggs/internal/extractor"
	"github.com/ryftone/caggs/internal/jsonscan"
	"github.com/ryftone/caggs/internal/logging"
	"github.com/ryftone/caggs/internal/record"
	"github.com/ryftone/caggs/internal/stat"
	"github.com/ryftone/caggs/internal/token"
)

// WorkerPool runs a fixed number of worker goroutines, one shot per
// batch: each worker goes idle, runs its shard, and finishes, then is
// reset and restarted on the next batch. N=0 is handled by the
// orchestrator calling RunShard directly against its own State;
// WorkerPool is not used in that path.
type WorkerPool struct {
	n      int
	fs     *aggregate.FieldSet
	states []*aggregate.State
	stop   *atomic.Bool
	log    *logging.Logger
	wg     sync.WaitGroup
}

// NewWorkerPool allocates n persistent worker States, each an
// independent clone of fs's field tree.
func NewWorkerPool(n int, fs *aggregate.FieldSet, stop *atomic.Bool, log *logging.Logger) *WorkerPool {
	wp := &WorkerPool{n: n, fs: fs, stop: stop, log: log}
	wp.states = make([]*aggregate.State, n)
	for i := range wp.states {
		wp.states[i] = fs.NewState()
	}
	return wp
}

// shard is a contiguous slice boundary within a batch's RecordRefs.
type shard struct {
	start, end int
}

// shards partitions n records into exactly k contiguous pieces of size
// ceil(n/k), the last non-empty one holding the remainder. When n < k
// there are more workers than records: the pieces past the end of the
// input are empty (start == end == n) rather than omitted, so every
// worker is still dispatched — as a no-op — and Join can merge every
// state unconditionally without re-merging a stale result from an
// earlier, larger batch.
func shards(n, k int) []shard {
	if k <= 0 {
		return nil
	}
	size := 0
	if n > 0 {
		size = (n + k - 1) / k
	}
	out := make([]shard, 0, k)
	start := 0
	for i := 0; i < k; i++ {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, shard{start: start, end: end})
		start = end
	}
	return out
}

// Dispatch starts one goroutine per worker against dataBase, resetting
// every worker's Stats first. shards always returns one piece per
// worker (empty for workers past the end of recs), so every worker
// runs exactly once per batch, even as a no-op. It does not block;
// call Join to wait for completion and fold results.
func (wp *WorkerPool) Dispatch(dataBase []byte, recs []record.Ref) {
	pieces := shards(len(recs), wp.n)
	for i, sh := range pieces {
		st := wp.states[i]
		st.ResetStats()
		wp.wg.Add(1)
		go func(st *aggregate.State, recs []record.Ref) {
			defer wp.wg.Done()
			RunShard(dataBase, recs, st, wp.stop, wp.log)
		}(st, recs[sh.start:sh.end])
	}
}

// Join waits for the in-flight batch's workers, then merges every
// worker's per-field Stats into dst in field order.
func (wp *WorkerPool) Join(dst []stat.Stat) {
	wp.wg.Wait()
	for _, st := range wp.states {
		st.MergeInto(dst)
	}
}

// RunShard processes recs sequentially against st, stopping early if
// stop is observed between records.
func RunShard(dataBase []byte, recs []record.Ref, st *aggregate.State, stop *atomic.Bool, log *logging.Logger) {
	for _, r := range recs {
		if stop != nil && stop.Load() {
			return
		}

		st.ResetLeaves()
		p := jsonscan.New(dataBase[r.Offset : r.Offset+r.Length])

		if err := extractor.Get(p, st.Root); err != nil {
			log.Debugf("caggs: skipping malformed record at data offset %d: %v", r.Offset, err)
			continue
		}

		for i, leaf := range st.Leaves {
			switch leaf.Token.Kind {
			case token.EOF:
				// Field absent from this record: count is not touched
				// at all.
				continue
			case token.Number:
				v, err := strconv.ParseFloat(string(p.Bytes(leaf.Token)), 64)
				if err != nil {
					st.Stats[i].AddBadValue()
					continue
				}
				st.Stats[i].Add(v)
			default:
				// Present but not a Number.
				st.Stats[i].AddBadValue()
			}
		}
	}
}
