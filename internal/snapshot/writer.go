package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"synchron/internal/audit"
	"synchron/internal/metrics"
)

// Writer serializes snapshot saves onto a single goroutine so that the
// durable backend sees writes in a deterministic order while mutations
// never wait on storage. Requests arriving while a save is in flight
// coalesce into one trailing save of the then-current state.
type Writer struct {
	store  Store
	source func() Snapshot
	log    *audit.Log
	logger *logrus.Entry

	requests chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup

	saveTimeout time.Duration
}

// NewWriter builds a writer that pulls fresh snapshots from source on each
// save. Failed saves are logged and recorded in the audit log; they are
// never surfaced to the mutation that requested the write.
func NewWriter(store Store, source func() Snapshot, log *audit.Log, logger *logrus.Logger) *Writer {
	return &Writer{
		store:       store,
		source:      source,
		log:         log,
		logger:      logger.WithField("component", "snapshot-writer"),
		requests:    make(chan struct{}, 1),
		done:        make(chan struct{}),
		saveTimeout: 30 * time.Second,
	}
}

// Start launches the writer goroutine. The writer runs until Shutdown so
// that the final flush still happens after the process context is gone.
func (w *Writer) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.requests:
				w.save()
			case <-w.done:
				// flush anything requested but not yet written
				select {
				case <-w.requests:
					w.save()
				default:
				}
				return
			}
		}
	}()
}

// Request schedules a save of the current registry state. It never blocks;
// if a save is already pending the request folds into it.
func (w *Writer) Request() {
	select {
	case w.requests <- struct{}{}:
	default:
	}
}

// Shutdown stops the writer after flushing any pending save.
func (w *Writer) Shutdown() {
	close(w.done)
	w.wg.Wait()
}

func (w *Writer) save() {
	snap := w.source()

	saveCtx, cancel := context.WithTimeout(context.Background(), w.saveTimeout)
	defer cancel()

	if err := w.store.Save(saveCtx, snap); err != nil {
		w.logger.Warnf("save snapshot (%d users): %v", len(snap.Users), err)
		w.log.Append(audit.ActionError, audit.ActorSystem, "snapshot save failed: "+err.Error())
		metrics.SnapshotSaves.WithLabelValues("error").Inc()
		return
	}
	metrics.SnapshotSaves.WithLabelValues("ok").Inc()
}
