package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"email", "plan", "quota_total", "quota_used", "period_start", "referral_code",
	"referral_credits", "payment_info", "created_at", "updated_at",
}

func userRow(email string, plan string, total, used int, start time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(userRowColumns).AddRow(
		email, plan, total, used, start, "JYOTABC1234", 0, []byte("{}"), start, start,
	)
}

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *Postgres) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgres(mock)
}

func TestPostgres_GetUser(t *testing.T) {
	mock, store := newMockStore(t)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("a@example.com").
		WillReturnRows(userRow("a@example.com", "premium", 20, 4, start))

	got, err := store.GetUser(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, got.Plan)
	assert.Equal(t, 20, got.QuotaTotal)
	assert.Equal(t, 4, got.QuotaUsed)
	assert.Equal(t, start, got.PeriodStart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetUser_NotFound(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("missing@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetUser(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateUser_LocksRow(t *testing.T) {
	mock, store := newMockStore(t)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1 FOR UPDATE")).
		WithArgs("a@example.com").
		WillReturnRows(userRow("a@example.com", "standard", 3, 1, start))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs("a@example.com", "standard", 3, 2, start, 0, []byte("{}"), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	got, err := store.UpdateUser(context.Background(), "a@example.com", func(e *domain.Entitlement) error {
		e.QuotaUsed++
		e.UpdatedAt = time.Now()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.QuotaUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateUser_AbortRollsBack(t *testing.T) {
	mock, store := newMockStore(t)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("a@example.com").
		WillReturnRows(userRow("a@example.com", "standard", 3, 3, start))
	mock.ExpectRollback()

	quotaErr := domain.QuotaExceeded("test", 3, 3)
	_, err := store.UpdateUser(context.Background(), "a@example.com", func(*domain.Entitlement) error {
		return quotaErr
	})
	assert.ErrorIs(t, err, quotaErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreditReferral(t *testing.T) {
	tests := []struct {
		name         string
		rowsInserted int64
		wantCredited bool
	}{
		{"first use credits owner", 1, true},
		{"replay credits nothing", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, store := newMockStore(t)
			now := time.Now()

			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta("SELECT email FROM users WHERE referral_code = $1 FOR UPDATE")).
				WithArgs("JYOTOWN1234").
				WillReturnRows(pgxmock.NewRows([]string{"email"}).AddRow("owner@example.com"))
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO referrals")).
				WithArgs("JYOTOWN1234", "friend@example.com", "owner@example.com", now).
				WillReturnResult(pgxmock.NewResult("INSERT", tt.rowsInserted))
			if tt.wantCredited {
				mock.ExpectExec(regexp.QuoteMeta("SET quota_total = quota_total + 1")).
					WithArgs("owner@example.com", now).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			}
			mock.ExpectCommit()

			credited, err := store.CreditReferral(context.Background(), "JYOTOWN1234", "friend@example.com", now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCredited, credited)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgres_CreditReferral_UnknownCode(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE referral_code = $1 FOR UPDATE")).
		WithArgs("NOPE").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := store.CreditReferral(context.Background(), "NOPE", "friend@example.com", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertUserIfAbsent(t *testing.T) {
	mock, store := newMockStore(t)
	e := domain.NewEntitlement("a@example.com", "JYOTA@E1234", time.Now())

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (email) DO NOTHING")).
		WithArgs(e.Email, "standard", 3, 0, e.PeriodStart, e.ReferralCode, 0, []byte("{}"), e.CreatedAt, e.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := store.InsertUserIfAbsent(context.Background(), e)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_StoreErrorIsWrapped(t *testing.T) {
	mock, store := newMockStore(t)
	connErr := errors.New("connection refused")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM predictions")).WillReturnError(connErr)

	_, err := store.CountFeatured(context.Background())
	assert.ErrorIs(t, err, connErr)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestBuildListPredictions(t *testing.T) {
	query, args, err := buildListPredictions(domain.PredictionFilter{
		UserEmail:    "a@example.com",
		FeaturedOnly: true,
		Limit:        20,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "SELECT id, user_email"))
	assert.Contains(t, query, "WHERE user_email = $1 AND is_featured = $2")
	assert.Contains(t, query, "ORDER BY created_at DESC LIMIT 20")
	assert.Equal(t, []any{"a@example.com", true}, args)

	query, args, err = buildListPredictions(domain.PredictionFilter{})
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
}
