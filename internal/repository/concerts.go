package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tessera/internal/database"
	"tessera/internal/models"
)

type ConcertRepository struct {
	db *database.DB
}

func NewConcertRepository(db *database.DB) *ConcertRepository {
	return &ConcertRepository{db: db}
}

const concertColumns = `id, con_title, con_introduction, con_info_status, review_status,
	       review_note, event_start_date, event_end_date, created_at, updated_at`

func scanConcert(row interface {
	Scan(dest ...interface{}) error
}, c *models.Concert) error {
	return row.Scan(
		&c.ID,
		&c.ConTitle,
		&c.ConIntroduction,
		&c.ConInfoStatus,
		&c.ReviewStatus,
		&c.ReviewNote,
		&c.EventStartDate,
		&c.EventEndDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func (r *ConcertRepository) Create(ctx context.Context, concert *models.Concert) error {
	query := `
		INSERT INTO concerts (con_title, con_introduction, con_info_status,
		                      event_start_date, event_end_date)
		VALUES ($1, $2, 'draft', $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		concert.ConTitle,
		concert.ConIntroduction,
		concert.EventStartDate,
		concert.EventEndDate,
	).Scan(&concert.ID, &concert.CreatedAt, &concert.UpdatedAt)

	if err == nil {
		concert.ConInfoStatus = models.ConcertDraft
	}
	return err
}

func (r *ConcertRepository) GetByID(ctx context.Context, id string) (*models.Concert, error) {
	concert := &models.Concert{}
	query := `SELECT ` + concertColumns + ` FROM concerts WHERE id = $1`

	err := scanConcert(r.db.QueryRowContext(ctx, query, id), concert)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return concert, err
}

// Transition moves a concert between states with a conditional update.
// fromReview narrows the guard to a specific review status when non-nil.
// A zero-row result means the concert was not in the expected state, which
// is how a stale concurrent admin action loses.
func (r *ConcertRepository) Transition(ctx context.Context, id string,
	from models.ConInfoStatus, fromReview *models.ReviewStatus,
	to models.ConInfoStatus, toReview *models.ReviewStatus, note *string) (bool, error) {

	query := `
		UPDATE concerts
		SET con_info_status = $2, review_status = $3, updated_at = NOW()`
	args := []interface{}{id, to, toReview}
	argIndex := 4

	if note != nil {
		query += fmt.Sprintf(", review_note = $%d", argIndex)
		args = append(args, *note)
		argIndex++
	}

	query += fmt.Sprintf(" WHERE id = $1 AND con_info_status = $%d", argIndex)
	args = append(args, from)
	argIndex++

	if fromReview != nil {
		query += fmt.Sprintf(" AND review_status = $%d", argIndex)
		args = append(args, *fromReview)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to transition concert: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *ConcertRepository) List(ctx context.Context, status *models.ConInfoStatus) ([]models.Concert, error) {
	var concerts []models.Concert
	query := `SELECT ` + concertColumns + ` FROM concerts`
	var args []interface{}

	if status != nil {
		query += ` WHERE con_info_status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var concert models.Concert
		if err := scanConcert(rows, &concert); err != nil {
			return nil, err
		}
		concerts = append(concerts, concert)
	}

	return concerts, rows.Err()
}

// ListPublishedEnded returns published concerts whose event end date has
// passed, candidates for the finished transition.
func (r *ConcertRepository) ListPublishedEnded(ctx context.Context, now time.Time) ([]models.Concert, error) {
	var concerts []models.Concert
	query := `SELECT ` + concertColumns + `
		FROM concerts
		WHERE con_info_status = 'published' AND event_end_date IS NOT NULL AND event_end_date <= $1
		ORDER BY event_end_date ASC`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var concert models.Concert
		if err := scanConcert(rows, &concert); err != nil {
			return nil, err
		}
		concerts = append(concerts, concert)
	}

	return concerts, rows.Err()
}

// Stats counts concerts per status pair for the dashboard review cards.
func (r *ConcertRepository) Stats(ctx context.Context) (*models.ConcertStatsResponse, error) {
	stats := &models.ConcertStatsResponse{}
	query := `SELECT con_info_status, review_status, COUNT(*) FROM concerts GROUP BY con_info_status, review_status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status models.ConInfoStatus
		var review *models.ReviewStatus
		var count int
		if err := rows.Scan(&status, &review, &count); err != nil {
			return nil, err
		}

		stats.Total += count
		switch status {
		case models.ConcertDraft:
			stats.Draft += count
		case models.ConcertReviewing:
			stats.Reviewing += count
			if review != nil && *review == models.ReviewPending {
				stats.PendingReview += count
			}
		case models.ConcertPublished:
			stats.Published += count
		case models.ConcertRejected:
			stats.Rejected += count
		case models.ConcertFinished:
			stats.Finished += count
		}

		if review != nil && *review == models.ReviewSkipped {
			stats.ReviewSkipped += count
		}
	}

	return stats, rows.Err()
}
