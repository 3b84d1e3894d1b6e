package syncworker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	appkafka "github.com/ChadIImus/Devoops/internal/broker"
	"github.com/ChadIImus/Devoops/internal/logger"
	"github.com/ChadIImus/Devoops/internal/models"
	"github.com/ChadIImus/Devoops/internal/timeline"
)

var logg = logger.New()

// Worker replays externally-published commands from the sync topic into
// the timeline service. Each command carries a sequence id; commands at or
// below the recorded latest value are skipped, so the stream can be
// replayed from any offset without double-applying.
type Worker struct {
	svc          *timeline.Service
	reader       appkafka.KafkaReader
	jobQueueSize int
}

// New creates a Worker using pre-initialized dependencies.
func New(svc *timeline.Service, reader appkafka.KafkaReader, jobQueueSize int) *Worker {
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}
	return &Worker{
		svc:          svc,
		reader:       reader,
		jobQueueSize: jobQueueSize,
	}
}

// Run starts message reading and processing. Commands must be applied in
// stream order (a follow may precede its unfollow), so a single processor
// goroutine drains the queue.
func (w *Worker) Run(ctx context.Context) {
	logg.Info("syncworker", "Starting with queue size "+fmt.Sprint(w.jobQueueSize))

	jobs := make(chan []byte, w.jobQueueSize)
	done := make(chan struct{})

	go func() {
		defer close(done)
		w.processLoop(ctx, jobs)
	}()

	w.readLoop(ctx, jobs)

	close(jobs)
	<-done
	logg.Info("syncworker", "Worker stopped gracefully")
}

// readLoop reads Kafka messages and pushes them into the job queue.
func (w *Worker) readLoop(ctx context.Context, jobs chan<- []byte) {
	var retry int
	for {
		select {
		case <-ctx.Done():
			return
		default:
			msg, err := w.reader.ReadMessage(ctx)
			if err != nil {
				backoff := time.Duration(math.Min(1000, math.Pow(2, float64(retry)))) * time.Millisecond
				logg.Error("syncworker", "Kafka read error, backing off", err)
				if !waitWithContext(ctx, backoff) {
					return
				}
				retry++
				continue
			}
			retry = 0

			if len(msg.Value) == 0 {
				if !waitWithContext(ctx, 50*time.Millisecond) {
					return
				}
				continue
			}

			select {
			case jobs <- msg.Value:
			case <-ctx.Done():
				return
			}
		}
	}
}

// processLoop decodes and applies commands one at a time.
func (w *Worker) processLoop(ctx context.Context, jobs <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-jobs:
			if !ok {
				return
			}

			var cmd models.SyncCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				logg.Error("syncworker", "Invalid JSON in sync command", err)
				continue
			}

			if err := w.Apply(cmd); err != nil {
				logg.Error("syncworker", "Failed to apply sync command", err)
			}
		}
	}
}

// Apply runs a single command through the service and advances the
// sequence tracker. Already-applied commands (sequence at or below the
// recorded latest) are skipped; a Conflict from a register replay counts
// as applied.
func (w *Worker) Apply(cmd models.SyncCommand) error {
	latest, err := w.svc.Latest()
	if err != nil {
		return err
	}
	if cmd.Seq <= latest {
		logg.Debug("syncworker", "Skipping already-applied command seq="+fmt.Sprint(cmd.Seq))
		return nil
	}

	if err := w.dispatch(cmd); err != nil {
		return err
	}

	return w.svc.RecordLatest(cmd.Seq, cmd.Seq)
}

func (w *Worker) dispatch(cmd models.SyncCommand) error {
	switch cmd.Action {
	case models.ActionRegister:
		_, err := w.svc.Register(cmd.Username, cmd.Email, cmd.DisplayName)
		if errors.Is(err, timeline.ErrConflict) {
			// the account already exists from an earlier pass
			return nil
		}
		return err

	case models.ActionFollow:
		who, err := w.svc.UserByUsername(cmd.Who)
		if err != nil {
			return err
		}
		return w.svc.Follow(who.ID, cmd.Whom)

	case models.ActionUnfollow:
		who, err := w.svc.UserByUsername(cmd.Who)
		if err != nil {
			return err
		}
		return w.svc.Unfollow(who.ID, cmd.Whom)

	case models.ActionPost:
		author, err := w.svc.UserByUsername(cmd.Author)
		if err != nil {
			return err
		}
		_, err = w.svc.CreatePost(author.ID, cmd.Text)
		return err

	default:
		return fmt.Errorf("unknown sync action %q", cmd.Action)
	}
}

// waitWithContext waits for duration or context cancellation.
func waitWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close shuts down the Kafka reader.
func (w *Worker) Close() error {
	logg.Info("syncworker", "Closing Kafka reader")
	if err := w.reader.Close(); err != nil {
		logg.Error("syncworker", "Error closing Kafka reader", err)
		return err
	}
	return nil
}
