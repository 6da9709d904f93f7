package journal

import (
	"context"
	"database/sql/driver"
	"errors"
	"os"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/cnybot/internal/metrics"
	"github.com/m3rciful/cnybot/internal/quote"
	"github.com/m3rciful/cnybot/internal/rates"
)

const xxlLabel = "XXL (две пары обуви и вещи)"

func TestNewEntry(t *testing.T) {
	box, ok := quote.LookupBox(xxlLabel)
	require.True(t, ok)
	q := quote.Compute(1500.5, 12.34, box)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))

	e := NewEntry(7, q, rates.SourceCBR, now)
	_, err := uuid.Parse(e.ID)
	require.NoError(t, err)
	require.Equal(t, int64(7), e.UserID)
	require.Equal(t, 1500.5, e.PriceCNY)
	require.Equal(t, 12.34, e.Rate)
	require.Equal(t, "cbr", e.RateSource)
	require.Equal(t, box.Code, e.BoxCode)
	require.Equal(t, box.Delivery, e.DeliveryRUB)
	require.Equal(t, quote.ServiceFee, e.ServiceFee)
	require.Equal(t, int64(q.Total), e.TotalRUB)
	require.Equal(t, time.UTC, e.CreatedAt.Location())
	require.True(t, e.CreatedAt.Equal(now))

	other := NewEntry(7, q, rates.SourceCBR, now)
	require.NotEqual(t, e.ID, other.ID)
}

// uuidArg matches any well-formed uuid string.
type uuidArg struct{}

func (uuidArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// timeArg matches a time.Time equal to want.
type timeArg struct{ want time.Time }

func (a timeArg) Match(v driver.Value) bool {
	got, ok := v.(time.Time)
	return ok && got.Equal(a.want)
}

func newMockJournal(t *testing.T) (*Journal, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

var insertRe = `INSERT INTO quotes\s+\(id, user_id, price_cny, rate, rate_source, box_code, delivery_rub, service_fee, total_rub, created_at\)\s+` +
	`VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10\)`

func TestRecordInsertsEveryColumn(t *testing.T) {
	j, mock := newMockJournal(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	box, _ := quote.LookupBox(xxlLabel)
	q := quote.Compute(1500, 12.5, box)
	ok := metrics.JournalWrites.WithLabelValues("ok")
	before := testutil.ToFloat64(ok)

	mock.ExpectExec(insertRe).
		WithArgs(uuidArg{}, int64(42), 1500.0, 12.5, rates.SourceFallback, "XXL", 4000, 2000, int64(24750), timeArg{now}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, j.Record(context.Background(), 42, q, rates.SourceFallback))
	require.NoError(t, mock.ExpectationsWereMet())
	require.Equal(t, before+1, testutil.ToFloat64(ok))
}

func TestRecordWrapsInsertError(t *testing.T) {
	j, mock := newMockJournal(t)
	box, _ := quote.LookupBox(xxlLabel)
	fail := metrics.JournalWrites.WithLabelValues("fail")
	before := testutil.ToFloat64(fail)

	boom := errors.New("connection reset")
	mock.ExpectExec(insertRe).WillReturnError(boom)

	err := j.Record(context.Background(), 1, quote.Compute(10, 12.5, box), rates.SourceCBR)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "journal: insert quote")
	require.NoError(t, mock.ExpectationsWereMet())
	require.Equal(t, before+1, testutil.ToFloat64(fail))
}

func TestCount(t *testing.T) {
	j, mock := newMockJournal(t)
	query := regexp.QuoteMeta(`SELECT count(*) FROM quotes`)

	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(17)))
	n, err := j.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 17, n)

	boom := errors.New("db down")
	mock.ExpectQuery(query).WillReturnError(boom)
	_, err = j.Count(context.Background())
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "journal: count")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryColumnsExistInMigration(t *testing.T) {
	schema, err := os.ReadFile("../../migrations/0001_create_quotes.up.sql")
	require.NoError(t, err)

	typ := reflect.TypeOf(Entry{})
	for i := 0; i < typ.NumField(); i++ {
		col := typ.Field(i).Tag.Get("db")
		require.NotEmpty(t, col, "field %s has no db tag", typ.Field(i).Name)
		require.Regexp(t, `(?m)^\s+`+col+`\s`, string(schema), "column %s missing from migration", col)
		require.True(t, strings.Contains(insertQuote, ":"+col), "column %s missing from insert", col)
	}
}
