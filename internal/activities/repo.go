package activities

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/activitytracker/internal/telemetry/tracing"
	"github.com/2beens/activitytracker/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Schema creates the activity table, it is safe to apply on every start.
//
//go:embed schema.sql
var Schema string

type ListParams struct {
	// Activity filters by tag when not empty.
	Activity string
	From     *time.Time
	To       *time.Time
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, activity Activity) (_ *Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("activity.id", activity.ID))

	if activity.ID == "" {
		return nil, errors.New("activity id empty")
	}

	tag, err := r.db.Exec(
		ctx,
		`INSERT INTO activity (id, activity, distance, date) VALUES ($1, $2, $3, $4);`,
		activity.ID, activity.Activity, activity.Distance, activity.Date,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrActivityExists
		}
		return nil, err
	}
	if tag.RowsAffected() != 1 {
		return nil, fmt.Errorf("unexpected rows affected: %d", tag.RowsAffected())
	}

	return &activity, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, activity, distance, date FROM activity WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities, err := r.rows2activities(rows)
	if err != nil {
		return nil, err
	}
	if len(activities) != 1 {
		return nil, ErrActivityNotFound
	}

	return &activities[0], nil
}

// List returns activities ordered by date, oldest first; records sharing a date keep insertion order.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("activity", params.Activity))
	if params.From != nil {
		span.SetAttributes(attribute.String("from", params.From.String()))
	}
	if params.To != nil {
		span.SetAttributes(attribute.String("to", params.To.String()))
	}

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, activity, distance, date
			FROM activity
				WHERE ($1::text = '' OR activity = $1)
				AND ($2::timestamptz IS NULL OR date >= $2)
				AND ($3::timestamptz IS NULL OR date <= $3)
			ORDER BY date ASC, seq ASC;`,
		params.Activity, params.From, params.To,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	activities, err := r.rows2activities(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2activities: %w", err)
	}
	return activities, nil
}

func (r *Repo) Update(ctx context.Context, activity Activity) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", activity.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE activity SET activity = $1, distance = $2, date = $3 WHERE id = $4;`,
		activity.Activity, activity.Distance, activity.Date, activity.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrActivityNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM activity WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrActivityNotFound
	}
	return nil
}

func (r *Repo) rows2activities(rows pgx.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Activity, &a.Distance, &a.Date); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}
