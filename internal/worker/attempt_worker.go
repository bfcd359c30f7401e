package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/learnflow/learnflow-backend/internal/config"
	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	AttemptBatchSize    = 50
	AttemptBatchTimeout = 2 * time.Second
	AttemptPollTimeout  = 1 * time.Second
)

// AttemptWriter is satisfied by *repository.AttemptRepository.
type AttemptWriter interface {
	InsertBatch(ctx context.Context, attempts []model.Attempt) error
}

// AttemptWorker moves submitted attempts from the Redis queue into Postgres.
type AttemptWorker struct {
	store AttemptWriter
	rdb   *redis.Client
	log   zerolog.Logger
	queue string

	batchSize    int
	batchTimeout time.Duration
	pollTimeout  time.Duration
}

func NewAttemptWorker(store AttemptWriter, rdb *redis.Client, log zerolog.Logger) *AttemptWorker {
	return &AttemptWorker{
		store:        store,
		rdb:          rdb,
		log:          log.With().Str("component", "attempt_worker").Logger(),
		queue:        config.WorkerKey.PersistAttemptsQueue,
		batchSize:    AttemptBatchSize,
		batchTimeout: AttemptBatchTimeout,
		pollTimeout:  AttemptPollTimeout,
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *AttemptWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AttemptWorker started")

	batch := make([]model.Attempt, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= w.batchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested, flushing remaining batch")
			w.flushSafe(context.Background(), batch)
			w.drain(context.Background())
			w.log.Info().Msg("AttemptWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, w.pollTimeout, w.queue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			a, ok := w.decode(item[1])
			if !ok {
				continue
			}
			batch = append(batch, a)
		}
	}
}

func (w *AttemptWorker) decode(raw string) (model.Attempt, bool) {
	var a model.Attempt
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		w.log.Error().Err(err).Msg("Invalid attempt payload, dropped")
		return a, false
	}
	return a, true
}

// ----------------------------------------------------------------
// Batch insert with row-by-row fallback
// ----------------------------------------------------------------

// flushSafe returns the number of attempts that could not be stored and
// were pushed back onto the queue.
func (w *AttemptWorker) flushSafe(ctx context.Context, batch []model.Attempt) int {
	if len(batch) == 0 {
		return 0
	}

	err := w.store.InsertBatch(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Attempts persisted")
		return 0
	}
	if len(batch) == 1 {
		w.requeue(ctx, batch[0], err)
		return 1
	}

	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk attempt insert failed, using fallback")

	failed := 0
	for _, a := range batch {
		if err := w.store.InsertBatch(ctx, []model.Attempt{a}); err != nil {
			w.requeue(ctx, a, err)
			failed++
		}
	}
	return failed
}

func (w *AttemptWorker) requeue(ctx context.Context, a model.Attempt, cause error) {
	w.log.Error().Err(cause).
		Str("attempt_id", a.ID.String()).
		Int("user_id", a.UserID).
		Str("assessment_id", a.AssessmentID).
		Msg("Attempt insert failed, requeueing")

	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := w.rdb.RPush(ctx, w.queue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("attempt_id", a.ID.String()).Msg("Requeue failed, attempt lost")
	}
}

// drain stores whatever is still queued before shutdown. It stops at the
// first batch that cannot be stored so the rest stays queued for the next run.
func (w *AttemptWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raws, err := w.rdb.LPopCount(ctx, w.queue, w.batchSize).Result()
		if err != nil || len(raws) == 0 {
			break
		}

		batch := make([]model.Attempt, 0, len(raws))
		for _, raw := range raws {
			if a, ok := w.decode(raw); ok {
				batch = append(batch, a)
			}
		}

		failed := w.flushSafe(ctx, batch)
		drained += len(batch) - failed
		if failed > 0 {
			break
		}
	}

	if drained > 0 {
		w.log.Info().Int("drained", drained).Msg("Drained attempt queue")
	}
}
