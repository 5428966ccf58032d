package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DukeRupert/jyotai/internal/domain"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

const predictionColumns = `id, user_email, name, type, birth_details, prediction_data,
	additional_data, highlights, plan, is_featured, created_at`

const insertPrediction = `INSERT INTO predictions (` + predictionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const getPrediction = `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1`

const countFeatured = `SELECT COUNT(*) FROM predictions WHERE is_featured`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func scanPrediction(row pgx.Row) (*domain.Prediction, error) {
	var (
		p          domain.Prediction
		typ, plan  string
		birth      []byte
		data       []byte
		additional []byte
	)
	err := row.Scan(
		&p.ID, &p.UserEmail, &p.Name, &typ, &birth, &data,
		&additional, &p.Highlights, &plan, &p.IsFeatured, &p.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	p.Type = domain.PredictionType(typ)
	p.Plan = domain.Plan(plan)
	p.AdditionalData = json.RawMessage(additional)
	if len(birth) > 0 && string(birth) != "null" {
		var bd domain.BirthDetails
		if err := json.Unmarshal(birth, &bd); err == nil {
			p.BirthDetails = &bd
		}
	}
	if err := json.Unmarshal(data, &p.PredictionData); err != nil {
		return nil, fmt.Errorf("decode prediction %s: %w", p.ID, err)
	}
	return &p, nil
}

// CreatePrediction stores a prediction document.
func (p *Postgres) CreatePrediction(ctx context.Context, pred *domain.Prediction) error {
	ctx, span := startSpan(ctx, "CreatePrediction", "predictions")
	defer span.End()

	birth, err := json.Marshal(pred.BirthDetails)
	if err != nil {
		return fmt.Errorf("encode birth details: %w", err)
	}
	data, err := json.Marshal(pred.PredictionData)
	if err != nil {
		return fmt.Errorf("encode prediction data: %w", err)
	}
	additional := []byte(pred.AdditionalData)
	if len(additional) == 0 {
		additional = []byte("{}")
	}
	highlights := pred.Highlights
	if highlights == nil {
		highlights = []string{}
	}

	_, err = p.pool.Exec(ctx, insertPrediction,
		pred.ID, pred.UserEmail, pred.Name, string(pred.Type), birth, data,
		additional, highlights, string(pred.Plan), pred.IsFeatured, pred.CreatedAt,
	)
	if err != nil {
		spanError(span, err)
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// GetPrediction loads a prediction by ID.
func (p *Postgres) GetPrediction(ctx context.Context, id string) (*domain.Prediction, error) {
	ctx, span := startSpan(ctx, "GetPrediction", "predictions")
	defer span.End()

	pred, err := scanPrediction(p.pool.QueryRow(ctx, getPrediction, id))
	spanError(span, err)
	return pred, err
}

// ListPredictions returns predictions matching filter, newest first.
func (p *Postgres) ListPredictions(ctx context.Context, filter domain.PredictionFilter) ([]domain.Prediction, error) {
	ctx, span := startSpan(ctx, "ListPredictions", "predictions")
	defer span.End()

	query, args, err := buildListPredictions(filter)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		spanError(span, err)
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var out []domain.Prediction
	for rows.Next() {
		pred, err := scanPrediction(rows)
		if err != nil {
			spanError(span, err)
			return nil, err
		}
		out = append(out, *pred)
	}
	if err := rows.Err(); err != nil {
		spanError(span, err)
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return out, nil
}

func buildListPredictions(filter domain.PredictionFilter) (string, []any, error) {
	q := psql.Select(predictionColumns).From("predictions")
	if filter.UserEmail != "" {
		q = q.Where(sq.Eq{"user_email": filter.UserEmail})
	}
	if filter.FeaturedOnly {
		q = q.Where(sq.Eq{"is_featured": true})
	}
	q = q.OrderBy("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	return q.ToSql()
}

// CountFeatured returns the number of featured predictions.
func (p *Postgres) CountFeatured(ctx context.Context) (int, error) {
	ctx, span := startSpan(ctx, "CountFeatured", "predictions")
	defer span.End()

	var n int
	if err := p.pool.QueryRow(ctx, countFeatured).Scan(&n); err != nil {
		spanError(span, err)
		return 0, fmt.Errorf("count featured: %w", err)
	}
	return n, nil
}
