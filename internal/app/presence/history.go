package presence

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"arcadelive/internal/pkg/logx"
	"arcadelive/internal/pkg/metrics"
)

const (
	// HistoryCapacity is the number of most recent messages kept per room.
	HistoryCapacity = 100

	// HistoryTTL is the expiry of a room's history entry, refreshed on every append.
	HistoryTTL = time.Hour

	// historyOpTimeout bounds a single cache call made by the writer.
	historyOpTimeout = 3 * time.Second
)

// History is the best-effort recent-message store for rooms.
// Append must keep at most HistoryCapacity entries per room, oldest evicted first,
// and refresh the entry's expiry to HistoryTTL.
type History interface {
	Append(ctx context.Context, streamID string, msg ChatMessage) error
	Recent(ctx context.Context, streamID string) ([]ChatMessage, error)
}

// historyJob is either an append (msg set) or a history read delivered to fn.
type historyJob struct {
	streamID string
	msg      *ChatMessage
	fn       func([]ChatMessage, error)
}

// HistoryWriter applies history operations off the broadcast path. Jobs are routed to a
// shard by stream id, so operations on one room run in dispatch order; a full shard drops
// the job instead of blocking the caller.
type HistoryWriter struct {
	store  History
	shards []chan historyJob

	// mu guards closed; dispatch holds it for reading while sending on a shard.
	mu     sync.RWMutex
	closed bool

	wg     sync.WaitGroup
	logger zerolog.Logger
}

// NewHistoryWriter starts workers goroutines, each with a queue of queueSize jobs.
func NewHistoryWriter(store History, workers, queueSize int) *HistoryWriter {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	w := &HistoryWriter{
		store:  store,
		shards: make([]chan historyJob, workers),
		logger: logx.Component("HistoryWriter"),
	}

	for i := range w.shards {
		w.shards[i] = make(chan historyJob, queueSize)
		w.wg.Add(1)
		go w.run(w.shards[i])
	}

	return w
}

// Dispatch queues an append of msg to the room's history and returns immediately.
// It reports whether the append was queued.
func (w *HistoryWriter) Dispatch(streamID string, msg ChatMessage) bool {
	if !w.enqueue(historyJob{streamID: streamID, msg: &msg}) {
		metrics.HistoryAppendsDropped.Inc()
		w.logger.Warn().Str("stream_id", streamID).Str("message_id", msg.ID).Msg("History queue full or closed, append dropped.")
		return false
	}
	return true
}

// Load queues a read of the room's history; fn runs on a writer goroutine after every
// append dispatched earlier for the same room. It reports whether the read was queued.
func (w *HistoryWriter) Load(streamID string, fn func([]ChatMessage, error)) bool {
	return w.enqueue(historyJob{streamID: streamID, fn: fn})
}

// Recent reads the room's history directly from the store.
func (w *HistoryWriter) Recent(ctx context.Context, streamID string) ([]ChatMessage, error) {
	return w.store.Recent(ctx, streamID)
}

// Close stops accepting jobs, drains the queues and waits for the workers to finish.
func (w *HistoryWriter) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	for _, shard := range w.shards {
		close(shard)
	}
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info().Msg("History writer stopped.")
}

func (w *HistoryWriter) enqueue(job historyJob) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return false
	}

	shard := w.shards[xxhash.Sum64String(job.streamID)%uint64(len(w.shards))]
	select {
	case shard <- job:
		return true
	default:
		return false
	}
}

func (w *HistoryWriter) run(jobs <-chan historyJob) {
	defer w.wg.Done()

	for job := range jobs {
		if job.msg != nil {
			w.append(job.streamID, *job.msg)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), historyOpTimeout)
		msgs, err := w.store.Recent(ctx, job.streamID)
		cancel()
		job.fn(msgs, err)
	}
}

func (w *HistoryWriter) append(streamID string, msg ChatMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), historyOpTimeout)
	defer cancel()

	start := time.Now()
	err := w.store.Append(ctx, streamID, msg)
	metrics.HistoryAppendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.HistoryAppendFailures.Inc()
		w.logger.Error().Err(err).
			Str("stream_id", streamID).
			Str("message_id", msg.ID).
			Msg("Failed to append message to history cache.")
	}
}
