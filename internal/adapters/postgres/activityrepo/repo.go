package activityrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/mergington/activities-api/internal/adapters/postgres"
	"github.com/mergington/activities-api/internal/domain"
	"github.com/mergington/activities-api/internal/ports/out/activityrepo"
)

// Repo is a Postgres implementation of activityrepo.Repository.
//
// It lets several API replicas share one registry. The registry is reseeded at startup,
// so rosters do not survive a restart.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) List(ctx context.Context) ([]domain.Activity, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, schedule, max_participants
		FROM activities
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Activity, 0)
	idx := make(map[int64]int)
	for rows.Next() {
		var (
			id int64
			a  domain.Activity
		)
		if err := rows.Scan(&id, &a.Name, &a.Description, &a.Schedule, &a.MaxParticipants); err != nil {
			return nil, err
		}
		a.Participants = []string{}
		idx[id] = len(out)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := r.pool.Query(ctx, `
		SELECT activity_id, email
		FROM activity_participants
		ORDER BY activity_id ASC, seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var (
			activityID int64
			email      string
		)
		if err := prows.Scan(&activityID, &email); err != nil {
			return nil, err
		}
		if i, ok := idx[activityID]; ok {
			out[i].Participants = append(out[i].Participants, email)
		}
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, name domain.ActivityName) (domain.Activity, error) {
	if r.pool == nil {
		return domain.Activity{}, errors.New("nil postgres pool")
	}

	var (
		id int64
		a  domain.Activity
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, schedule, max_participants
		FROM activities
		WHERE name = $1
	`, string(name)).Scan(&id, &a.Name, &a.Description, &a.Schedule, &a.MaxParticipants)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Activity{}, activityrepo.ErrNotFound
		}
		return domain.Activity{}, err
	}

	ps, err := listParticipants(ctx, r.pool, id)
	if err != nil {
		return domain.Activity{}, err
	}
	a.Participants = ps
	return a, nil
}

func (r *Repo) AddParticipant(ctx context.Context, name domain.ActivityName, email string, enforceCapacity bool) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		id, maxParticipants, err := lockActivity(ctx, tx, name)
		if err != nil {
			return err
		}

		var (
			enrolled bool
			count    int
		)
		if err := tx.QueryRow(ctx, `
			SELECT
				EXISTS (SELECT 1 FROM activity_participants WHERE activity_id = $1 AND email = $2),
				(SELECT count(*) FROM activity_participants WHERE activity_id = $1)
		`, id, email).Scan(&enrolled, &count); err != nil {
			return err
		}
		if enrolled {
			return activityrepo.ErrAlreadyEnrolled
		}
		if enforceCapacity && count >= maxParticipants {
			return activityrepo.ErrFull
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO activity_participants (activity_id, email)
			VALUES ($1, $2)
		`, id, email)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return activityrepo.ErrAlreadyEnrolled
			}
			return err
		}
		return nil
	})
}

func (r *Repo) RemoveParticipant(ctx context.Context, name domain.ActivityName, email string) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		id, _, err := lockActivity(ctx, tx, name)
		if err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `
			DELETE FROM activity_participants
			WHERE activity_id = $1 AND email = $2
		`, id, email)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return activityrepo.ErrNotEnrolled
		}
		return nil
	})
}

func (r *Repo) Seed(ctx context.Context, activities []domain.Activity) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE activity_participants, activities RESTART IDENTITY`); err != nil {
			return err
		}
		for pos, a := range activities {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO activities (external_id, name, description, schedule, max_participants, position)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id
			`, uuid.New(), string(a.Name), a.Description, a.Schedule, a.MaxParticipants, pos).Scan(&id)
			if err != nil {
				if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
					return fmt.Errorf("seed: duplicate activity %q", a.Name)
				}
				return err
			}
			for _, email := range a.Participants {
				if _, err := tx.Exec(ctx, `
					INSERT INTO activity_participants (activity_id, email)
					VALUES ($1, $2)
				`, id, email); err != nil {
					return fmt.Errorf("seed %q participant: %w", a.Name, err)
				}
			}
		}
		return nil
	})
}

// lockActivity row-locks the activity so roster checks and writes are serialized per activity.
func lockActivity(ctx context.Context, tx pgx.Tx, name domain.ActivityName) (int64, int, error) {
	var (
		id              int64
		maxParticipants int
	)
	err := tx.QueryRow(ctx, `
		SELECT id, max_participants
		FROM activities
		WHERE name = $1
		FOR UPDATE
	`, string(name)).Scan(&id, &maxParticipants)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, activityrepo.ErrNotFound
		}
		return 0, 0, err
	}
	return id, maxParticipants, nil
}

func listParticipants(ctx context.Context, pool *pgxpool.Pool, activityID int64) ([]string, error) {
	rows, err := pool.Query(ctx, `
		SELECT email
		FROM activity_participants
		WHERE activity_id = $1
		ORDER BY seq ASC
	`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}
