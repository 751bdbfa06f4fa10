package service

import (
	"context"
	"fmt"
	"time"

	apperrors "tessera/internal/errors"
	"tessera/internal/logger"
	"tessera/internal/metrics"
	"tessera/internal/models"
)

// ConcertService is the review workflow. conInfoStatus moves one way
// through draft, reviewing, published/rejected and finished, with
// rejected -> reviewing as the single backward edge; reviewStatus is the
// independent review axis. Every transition is a conditional update on the
// expected current state, so a stale concurrent admin action loses instead
// of silently overwriting.
type ConcertService struct {
	concerts  ConcertStore
	publisher Publisher
	index     ConcertIndexer

	now func() time.Time
}

func NewConcertService(concerts ConcertStore, publisher Publisher, index ConcertIndexer) *ConcertService {
	return &ConcertService{
		concerts:  concerts,
		publisher: publisher,
		index:     index,
		now:       time.Now,
	}
}

func (s *ConcertService) Create(ctx context.Context, req *models.CreateConcertRequest) (*models.Concert, error) {
	concert := &models.Concert{
		ConTitle:        req.ConTitle,
		ConIntroduction: req.ConIntroduction,
		EventStartDate:  req.EventStartDate,
		EventEndDate:    req.EventEndDate,
	}

	if err := s.concerts.Create(ctx, concert); err != nil {
		return nil, fmt.Errorf("failed to create concert: %w", err)
	}

	return concert, nil
}

// Submit moves a draft into review and opens the pending review.
func (s *ConcertService) Submit(ctx context.Context, concertID string) (*models.Concert, error) {
	concert, err := s.getConcert(ctx, concertID)
	if err != nil {
		return nil, err
	}
	if concert.ConInfoStatus != models.ConcertDraft {
		return nil, apperrors.ErrInvalidTransition
	}

	pending := models.ReviewPending
	ok, err := s.concerts.Transition(ctx, concertID,
		models.ConcertDraft, nil, models.ConcertReviewing, &pending, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrInvalidTransition
	}

	concert.ConInfoStatus = models.ConcertReviewing
	concert.ReviewStatus = &pending

	s.publishConcertEvent(ctx, models.EventConcertSubmitted, concert)
	return concert, nil
}

// Review resolves a pending review. decision must be approved or rejected;
// any other state of the concert fails with ErrInvalidReviewState.
func (s *ConcertService) Review(ctx context.Context, concertID, decision, note string) (*models.Concert, error) {
	concert, err := s.getConcert(ctx, concertID)
	if err != nil {
		return nil, err
	}

	var to models.ConInfoStatus
	var toReview models.ReviewStatus
	var subject string
	switch decision {
	case string(models.ReviewApproved):
		to = models.ConcertPublished
		toReview = models.ReviewApproved
		subject = models.EventConcertPublished
	case string(models.ReviewRejected):
		to = models.ConcertRejected
		toReview = models.ReviewRejected
		subject = models.EventConcertRejected
	default:
		return nil, fmt.Errorf("unknown review decision %q", decision)
	}

	if concert.ConInfoStatus != models.ConcertReviewing ||
		concert.ReviewStatus == nil || *concert.ReviewStatus != models.ReviewPending {
		return nil, apperrors.ErrInvalidReviewState
	}

	pending := models.ReviewPending
	ok, err := s.concerts.Transition(ctx, concertID,
		models.ConcertReviewing, &pending, to, &toReview, &note)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another admin resolved the review between our read and the update.
		return nil, apperrors.ErrInvalidReviewState
	}

	concert.ConInfoStatus = to
	concert.ReviewStatus = &toReview
	concert.ReviewNote = &note

	metrics.ReviewDecision(decision)
	s.publishConcertEvent(ctx, subject, concert)

	if to == models.ConcertPublished {
		s.indexConcert(ctx, concert)
	}

	return concert, nil
}

// Resubmit reopens review for a rejected concert, the only backward edge.
func (s *ConcertService) Resubmit(ctx context.Context, concertID string) (*models.Concert, error) {
	concert, err := s.getConcert(ctx, concertID)
	if err != nil {
		return nil, err
	}
	if concert.ConInfoStatus != models.ConcertRejected {
		return nil, apperrors.ErrInvalidTransition
	}

	pending := models.ReviewPending
	ok, err := s.concerts.Transition(ctx, concertID,
		models.ConcertRejected, nil, models.ConcertReviewing, &pending, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrInvalidTransition
	}

	concert.ConInfoStatus = models.ConcertReviewing
	concert.ReviewStatus = &pending

	s.publishConcertEvent(ctx, models.EventConcertSubmitted, concert)
	return concert, nil
}

// SkipReview publishes a draft directly, bypassing review. Administrative
// override only; the review axis records the bypass as skipped.
func (s *ConcertService) SkipReview(ctx context.Context, concertID string) (*models.Concert, error) {
	concert, err := s.getConcert(ctx, concertID)
	if err != nil {
		return nil, err
	}
	if concert.ConInfoStatus != models.ConcertDraft {
		return nil, apperrors.ErrInvalidTransition
	}

	skipped := models.ReviewSkipped
	ok, err := s.concerts.Transition(ctx, concertID,
		models.ConcertDraft, nil, models.ConcertPublished, &skipped, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrInvalidTransition
	}

	concert.ConInfoStatus = models.ConcertPublished
	concert.ReviewStatus = &skipped

	metrics.ReviewDecision(string(models.ReviewSkipped))
	s.publishConcertEvent(ctx, models.EventConcertPublished, concert)
	s.indexConcert(ctx, concert)

	return concert, nil
}

// Complete finishes a published concert once its event end date has passed.
// Time-triggered, not user-initiated; the completion job drives it.
func (s *ConcertService) Complete(ctx context.Context, concertID string) (*models.Concert, error) {
	concert, err := s.getConcert(ctx, concertID)
	if err != nil {
		return nil, err
	}
	if concert.ConInfoStatus != models.ConcertPublished {
		return nil, apperrors.ErrInvalidTransition
	}
	if concert.EventEndDate == nil || s.now().Before(*concert.EventEndDate) {
		return nil, apperrors.ErrInvalidTransition
	}

	ok, err := s.concerts.Transition(ctx, concertID,
		models.ConcertPublished, nil, models.ConcertFinished, concert.ReviewStatus, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrInvalidTransition
	}

	concert.ConInfoStatus = models.ConcertFinished

	s.publishConcertEvent(ctx, models.EventConcertFinished, concert)
	s.indexConcert(ctx, concert)

	return concert, nil
}

// ListEnded returns the published concerts whose event end date has passed,
// for the completion job.
func (s *ConcertService) ListEnded(ctx context.Context) ([]models.Concert, error) {
	return s.concerts.ListPublishedEnded(ctx, s.now())
}

func (s *ConcertService) Get(ctx context.Context, concertID string) (*models.Concert, error) {
	return s.getConcert(ctx, concertID)
}

func (s *ConcertService) List(ctx context.Context, status *models.ConInfoStatus) ([]models.Concert, error) {
	return s.concerts.List(ctx, status)
}

func (s *ConcertService) Stats(ctx context.Context) (*models.ConcertStatsResponse, error) {
	return s.concerts.Stats(ctx)
}

func (s *ConcertService) getConcert(ctx context.Context, concertID string) (*models.Concert, error) {
	concert, err := s.concerts.GetByID(ctx, concertID)
	if err != nil {
		return nil, fmt.Errorf("failed to get concert: %w", err)
	}
	if concert == nil {
		return nil, apperrors.ErrNotFound
	}
	return concert, nil
}

func (s *ConcertService) publishConcertEvent(ctx context.Context, subject string, concert *models.Concert) {
	event := models.ConcertTransitionEvent{
		ConcertID:     concert.ID,
		ConInfoStatus: concert.ConInfoStatus,
		ReviewStatus:  concert.ReviewStatus,
		Timestamp:     s.now(),
	}

	if err := s.publisher.Publish(subject, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish concert event",
			"error", err,
			"concert_id", concert.ID,
			"event_type", subject)
	}
}

func (s *ConcertService) indexConcert(ctx context.Context, concert *models.Concert) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexConcert(ctx, concert); err != nil {
		logger.WithContext(ctx).Error("Failed to index concert",
			"error", err,
			"concert_id", concert.ID)
	}
}
