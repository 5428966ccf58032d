package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation        = "23505"
	referralCodeConstraint = "users_referral_code_key"
)

const userColumns = `email, plan, quota_total, quota_used, period_start, referral_code,
	referral_credits, payment_info, created_at, updated_at`

const getUser = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

const getUserForUpdate = getUser + ` FOR UPDATE`

const getUserByReferralCode = `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1`

const insertUser = `INSERT INTO users (` + userColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (email) DO NOTHING`

const updateUser = `UPDATE users
SET plan = $2, quota_total = $3, quota_used = $4, period_start = $5,
	referral_credits = $6, payment_info = $7, updated_at = $8
WHERE email = $1`

const lockReferrer = `SELECT email FROM users WHERE referral_code = $1 FOR UPDATE`

const insertReferral = `INSERT INTO referrals (referral_code, new_user_email, referrer_email, credited, created_at)
VALUES ($1, $2, $3, TRUE, $4)
ON CONFLICT (referral_code, new_user_email) DO NOTHING`

const creditReferrer = `UPDATE users
SET quota_total = quota_total + 1, referral_credits = referral_credits + 1, updated_at = $2
WHERE email = $1`

func scanUser(row pgx.Row) (*domain.Entitlement, error) {
	var (
		e       domain.Entitlement
		plan    string
		payment []byte
	)
	err := row.Scan(
		&e.Email, &plan, &e.QuotaTotal, &e.QuotaUsed, &e.PeriodStart, &e.ReferralCode,
		&e.ReferralCredits, &payment, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	e.Plan = domain.Plan(plan)
	e.PaymentInfo = json.RawMessage(payment)
	return &e, nil
}

func paymentJSON(e *domain.Entitlement) []byte {
	if len(e.PaymentInfo) == 0 {
		return []byte("{}")
	}
	return e.PaymentInfo
}

// GetUser loads the entitlement for email.
func (p *Postgres) GetUser(ctx context.Context, email string) (*domain.Entitlement, error) {
	ctx, span := startSpan(ctx, "GetUser", "users")
	defer span.End()

	e, err := scanUser(p.pool.QueryRow(ctx, getUser, email))
	spanError(span, err)
	return e, err
}

// GetUserByReferralCode loads the owner of a referral code.
func (p *Postgres) GetUserByReferralCode(ctx context.Context, code string) (*domain.Entitlement, error) {
	ctx, span := startSpan(ctx, "GetUserByReferralCode", "users")
	defer span.End()

	e, err := scanUser(p.pool.QueryRow(ctx, getUserByReferralCode, code))
	spanError(span, err)
	return e, err
}

// InsertUserIfAbsent creates the record unless the email already exists.
func (p *Postgres) InsertUserIfAbsent(ctx context.Context, e *domain.Entitlement) (bool, error) {
	ctx, span := startSpan(ctx, "InsertUserIfAbsent", "users")
	defer span.End()

	tag, err := p.pool.Exec(ctx, insertUser,
		e.Email, string(e.Plan), e.QuotaTotal, e.QuotaUsed, e.PeriodStart, e.ReferralCode,
		e.ReferralCredits, paymentJSON(e), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == referralCodeConstraint {
			return false, ErrDuplicateCode
		}
		spanError(span, err)
		return false, fmt.Errorf("insert user: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateUser applies fn to the row-locked record and writes it back. Concurrent
// callers for the same email queue on the row lock and each observe the
// previous caller's committed result.
func (p *Postgres) UpdateUser(ctx context.Context, email string, fn UpdateFunc) (*domain.Entitlement, error) {
	ctx, span := startSpan(ctx, "UpdateUser", "users")
	defer span.End()

	var updated *domain.Entitlement
	err := p.inTx(ctx, func(tx pgx.Tx) error {
		e, err := scanUser(tx.QueryRow(ctx, getUserForUpdate, email))
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, updateUser,
			e.Email, string(e.Plan), e.QuotaTotal, e.QuotaUsed, e.PeriodStart,
			e.ReferralCredits, paymentJSON(e), e.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		updated = e
		return nil
	})
	spanError(span, err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CreditReferral inserts the referral event and credits the owner in one
// transaction. A replayed (code, newEmail) pair inserts nothing and credits
// nothing.
func (p *Postgres) CreditReferral(ctx context.Context, code, newEmail string, now time.Time) (bool, error) {
	ctx, span := startSpan(ctx, "CreditReferral", "referrals")
	defer span.End()

	var credited bool
	err := p.inTx(ctx, func(tx pgx.Tx) error {
		var referrer string
		if err := tx.QueryRow(ctx, lockReferrer, code).Scan(&referrer); err != nil {
			return notFound(err)
		}

		tag, err := tx.Exec(ctx, insertReferral, code, newEmail, referrer, now)
		if err != nil {
			return fmt.Errorf("insert referral: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, creditReferrer, referrer, now); err != nil {
			return fmt.Errorf("credit referrer: %w", err)
		}
		credited = true
		return nil
	})
	spanError(span, err)
	return credited, err
}
