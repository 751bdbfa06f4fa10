package jobs

import (
	"context"
	"log/slog"
	"time"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
)

// ConcertFinisher is the slice of the concert service the completion job needs.
type ConcertFinisher interface {
	ListEnded(ctx context.Context) ([]models.Concert, error)
	Complete(ctx context.Context, concertID string) (*models.Concert, error)
}

// ConcertCompletionJob moves published concerts whose event end date has
// passed into the terminal finished state.
type ConcertCompletionJob struct {
	concerts ConcertFinisher
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

func NewConcertCompletionJob(concerts ConcertFinisher, interval time.Duration) *ConcertCompletionJob {
	return &ConcertCompletionJob{
		concerts: concerts,
		interval: interval,
		done:     make(chan bool),
	}
}

func (j *ConcertCompletionJob) Start(ctx context.Context) {
	slog.Info("Starting concert completion job", "interval", j.interval.String())

	j.ticker = time.NewTicker(j.interval)

	go j.RunOnce(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.RunOnce(ctx)
			case <-j.done:
				slog.Info("Concert completion job stopped")
				return
			}
		}
	}()
}

func (j *ConcertCompletionJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

// RunOnce executes a single completion pass and returns how many concerts
// it finished.
func (j *ConcertCompletionJob) RunOnce(ctx context.Context) int {
	ended, err := j.concerts.ListEnded(ctx)
	if err != nil {
		slog.Error("Failed to list ended concerts", "error", err)
		return 0
	}

	finished := 0
	for _, concert := range ended {
		_, err := j.concerts.Complete(ctx, concert.ID)
		switch {
		case err == nil:
			finished++
			slog.Info("Finished concert", "concert_id", concert.ID)
		case err == apperrors.ErrInvalidTransition:
			slog.Debug("Concert no longer completable", "concert_id", concert.ID)
		default:
			slog.Error("Failed to finish concert",
				"error", err,
				"concert_id", concert.ID)
		}
	}

	return finished
}
