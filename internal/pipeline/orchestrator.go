package pipeline

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/ryftone/caggs/internal/aggregate"
	"github.com/ryftone/caggs/internal/caggserr"
	"github.com/ryftone/caggs/internal/config"
	"github.com/ryftone/caggs/internal/indexfmt"
	"github.com/ryftone/caggs/internal/logging"
	"github.com/ryftone/caggs/internal/mmapio"
	"github.com/ryftone/caggs/internal/record"
	"github.com/ryftone/caggs/internal/stat"
)

// Run drives the full chunk-producer/orchestrator loop against cfg,
// returning the final merged per-field Stats in fs's field order.
// stop is polled between batches and between inner-loop iterations;
// if observed, Run returns (nil, cancellation error) without emitting
// partial results.
func Run(cfg config.Config, fs *aggregate.FieldSet, stop *atomic.Bool, log *logging.Logger) ([]stat.Stat, error) {
	indexF, err := os.Open(cfg.IndexPath)
	if err != nil {
		return nil, caggserr.Wrap(caggserr.IoError, fmt.Errorf("opening index file: %w", err))
	}
	defer indexF.Close()
	dataF, err := os.Open(cfg.DataPath)
	if err != nil {
		return nil, caggserr.Wrap(caggserr.IoError, fmt.Errorf("opening data file: %w", err))
	}
	defer dataF.Close()

	indexInfo, err := indexF.Stat()
	if err != nil {
		return nil, caggserr.Wrap(caggserr.IoError, fmt.Errorf("stat index file: %w", err))
	}
	dataInfo, err := dataF.Stat()
	if err != nil {
		return nil, caggserr.Wrap(caggserr.IoError, fmt.Errorf("stat data file: %w", err))
	}
	indexLen := indexInfo.Size()
	dataLen := dataInfo.Size()

	var pool *WorkerPool
	var inline *aggregate.State
	final := make([]stat.Stat, len(fs.Names))
	if cfg.Concurrency == 0 {
		inline = fs.InlineState()
		final = inline.Stats
	} else {
		pool = NewWorkerPool(cfg.Concurrency, fs, stop, log)
	}

	o := &orchestratorState{
		cfg:      cfg,
		indexF:   indexF,
		dataF:    dataF,
		indexLen: indexLen,
		dataLen:  dataLen,
		stop:     stop,
		log:      log,
		pool:     pool,
		inline:   inline,
		final:    final,
		dPos:     cfg.HeaderLen,
		recSlots: [2][]record.Ref{
			make([]record.Ref, 0, cfg.MaxRecords),
			make([]record.Ref, 0, cfg.MaxRecords),
		},
	}
	defer o.closeIndexWindow()

	if err := o.loop(); err != nil {
		return nil, err
	}
	if o.stop != nil && o.stop.Load() {
		return nil, caggserr.Wrap(caggserr.Cancellation, fmt.Errorf("aggregation cancelled"))
	}
	return o.final, nil
}

type orchestratorState struct {
	cfg      config.Config
	indexF   *os.File
	dataF    *os.File
	indexLen int64
	dataLen  int64
	stop     *atomic.Bool
	log      *logging.Logger
	pool     *WorkerPool
	inline   *aggregate.State
	final    []stat.Stat

	dPos int64 // next DATA byte to batch
	iPos int64 // next INDEX byte to consume

	iWin     *mmapio.Window
	iWinBase int64
	iBufPos  int

	recSlots [2][]record.Ref
	cur      int

	prevWindow     *mmapio.Window
	prevDispatched bool
}

func (o *orchestratorState) closeIndexWindow() {
	if o.iWin != nil {
		o.iWin.Close()
		o.iWin = nil
	}
}

func (o *orchestratorState) cancelled() bool {
	return o.stop != nil && o.stop.Load()
}

// loop runs the outer batching loop until the DATA file is exhausted,
// no progress is made, or cancellation is observed.
func (o *orchestratorState) loop() error {
	for !o.cancelled() && o.dPos < o.dataLen-o.cfg.FooterLen {
		dAlign := o.dPos % int64(mmapio.PageSize)
		recs := o.recSlots[o.cur][:0]
		dataUsed := uint64(dAlign)

		var err error
		recs, dataUsed, err = o.fillBatch(recs, dataUsed)
		if err != nil {
			return err
		}
		if o.cancelled() {
			return nil
		}
		if dataUsed == uint64(dAlign) || len(recs) == 0 {
			return nil
		}

		dataWin, err := mmapio.Map(o.dataF, o.dPos-dAlign, int64(dataUsed))
		if err != nil {
			return caggserr.Wrap(caggserr.IoError, err)
		}

		o.joinPrevious()
		o.prevWindow = dataWin

		if o.cfg.Concurrency == 0 {
			RunShard(dataWin.View(), recs, o.inline, o.stop, o.log)
		} else {
			o.pool.Dispatch(dataWin.View(), recs)
		}
		o.prevDispatched = true

		o.recSlots[o.cur] = recs
		o.cur = 1 - o.cur
		o.dPos += int64(dataUsed) - dAlign
	}

	o.joinPrevious()
	return nil
}

// joinPrevious waits for the previous batch's workers (a no-op for
// the inline/concurrency=0 path, which already ran synchronously) and
// unmaps its DATA window.
func (o *orchestratorState) joinPrevious() {
	if !o.prevDispatched {
		return
	}
	if o.cfg.Concurrency != 0 {
		o.pool.Join(o.final)
	}
	o.prevWindow.Close()
	o.prevWindow = nil
	o.prevDispatched = false
}

// fillBatch pulls INDEX windows and parses record-refs into recs
// until the batch is full, an INDEX window is exhausted with none
// left, or cancellation.
func (o *orchestratorState) fillBatch(recs []record.Ref, dataUsed uint64) ([]record.Ref, uint64, error) {
	for {
		if o.cancelled() {
			return recs, dataUsed, nil
		}
		if len(recs) >= cap(recs) || dataUsed >= uint64(o.cfg.DataChunkSize) {
			return recs, dataUsed, nil
		}

		if o.iWin == nil {
			if o.iPos >= o.indexLen {
				return recs, dataUsed, nil
			}
			base := o.iPos - o.iPos%int64(mmapio.PageSize)
			remaining := o.indexLen - base
			length := min(remaining, o.cfg.IndexChunkSize)
			win, err := mmapio.Map(o.indexF, base, length)
			if err != nil {
				return recs, dataUsed, caggserr.Wrap(caggserr.IoError, err)
			}
			o.iWin = win
			o.iWinBase = base
			o.iBufPos = int(o.iPos - base)
		}

		view := o.iWin.View()
		isLast := o.iWinBase+int64(len(view)) >= o.indexLen
		buf := view[o.iBufPos:]

		newRecs, res, err := indexfmt.ParseIndexChunk(buf, isLast, int(o.cfg.DelimLen), 0, uint64(o.cfg.DataChunkSize), recs, dataUsed)
		if err != nil {
			return recs, dataUsed, caggserr.Wrap(caggserr.IndexParseError, err)
		}

		recs = newRecs
		o.iBufPos += res.ConsumedBytes
		o.iPos += int64(res.ConsumedBytes)
		dataUsed = res.DataUsed

		switch res.Status {
		case indexfmt.DataFull:
			return recs, dataUsed, nil
		case indexfmt.Partial:
			o.iWin.Close()
			o.iWin = nil
			continue
		case indexfmt.OK:
			if o.iBufPos >= len(view) {
				o.iWin.Close()
				o.iWin = nil
			}
			if len(recs) >= cap(recs) || dataUsed >= uint64(o.cfg.DataChunkSize) {
				return recs, dataUsed, nil
			}
			continue
		default:
			return recs, dataUsed, fmt.Errorf("pipeline: unknown index-chunk status %v", res.Status)
		}
	}
}
