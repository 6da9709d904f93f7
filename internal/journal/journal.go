// Package journal appends completed quotes to Postgres.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/cnybot/core/logger"
	"github.com/m3rciful/cnybot/internal/metrics"
	"github.com/m3rciful/cnybot/internal/quote"
)

const writeTimeout = 3 * time.Second

const insertQuote = `INSERT INTO quotes
	(id, user_id, price_cny, rate, rate_source, box_code, delivery_rub, service_fee, total_rub, created_at)
	VALUES (:id, :user_id, :price_cny, :rate, :rate_source, :box_code, :delivery_rub, :service_fee, :total_rub, :created_at)`

// Entry is one row of the quotes table.
type Entry struct {
	ID          string    `db:"id"`
	UserID      int64     `db:"user_id"`
	PriceCNY    float64   `db:"price_cny"`
	Rate        float64   `db:"rate"`
	RateSource  string    `db:"rate_source"`
	BoxCode     string    `db:"box_code"`
	DeliveryRUB int       `db:"delivery_rub"`
	ServiceFee  int       `db:"service_fee"`
	TotalRUB    int64     `db:"total_rub"`
	CreatedAt   time.Time `db:"created_at"`
}

// NewEntry converts a computed quote into a row with a fresh id.
func NewEntry(userID int64, q quote.Quote, rateSource string, now time.Time) Entry {
	return Entry{
		ID:          uuid.NewString(),
		UserID:      userID,
		PriceCNY:    q.PriceCNY,
		Rate:        q.Rate,
		RateSource:  rateSource,
		BoxCode:     q.Box.Code,
		DeliveryRUB: q.Box.Delivery,
		ServiceFee:  q.ServiceFee,
		TotalRUB:    int64(q.Total),
		CreatedAt:   now.UTC(),
	}
}

// Journal writes quotes through sqlx.
type Journal struct {
	db  *sqlx.DB
	now func() time.Time
}

// New returns a Journal bound to db.
func New(db *sqlx.DB) *Journal {
	return &Journal{db: db, now: time.Now}
}

// Record inserts the quote. The caller decides what to do with the error.
func (j *Journal) Record(ctx context.Context, userID int64, q quote.Quote, rateSource string) error {
	e := NewEntry(userID, q, rateSource, j.now())
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	start := time.Now()
	if _, err := j.db.NamedExecContext(ctx, insertQuote, e); err != nil {
		metrics.JournalWrites.WithLabelValues("fail").Inc()
		return fmt.Errorf("journal: insert quote: %w", err)
	}
	metrics.JournalWrites.WithLabelValues("ok").Inc()
	logger.Debug(ctx, logger.CompJournal, "journal.record",
		slog.String("status", "ok"),
		slog.String("quote_id", e.ID),
		slog.String("box", e.BoxCode),
		slog.Int64("total_rub", e.TotalRUB),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// Count returns the number of journaled quotes.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := j.db.GetContext(ctx, &n, `SELECT count(*) FROM quotes`); err != nil {
		return 0, fmt.Errorf("journal: count: %w", err)
	}
	return n, nil
}
