package state

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const stateTable = "local_state"

type postgresRepo struct {
	pool          *pgxpool.Pool
	profile       string
	timeout       time.Duration
	maxValueBytes int
	sb            sq.StatementBuilderType
}

// NewPostgres returns a Repository scoped to one device profile. Every call
// runs under its own timeout since the Repository contract carries no context.
func NewPostgres(pool *pgxpool.Pool, profile string, timeout time.Duration, maxValueBytes int) Repository {
	if profile == "" {
		profile = "default"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &postgresRepo{
		pool:          pool,
		profile:       profile,
		timeout:       timeout,
		maxValueBytes: maxValueBytes,
		sb:            sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *postgresRepo) ReadRaw(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	q, args, err := r.sb.Select("value").
		From(stateTable).
		Where(sq.Eq{"profile": r.profile, "key": key}).
		ToSql()
	if err != nil {
		return "", false, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var value string
	if err := r.pool.QueryRow(ctx, q, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *postgresRepo) WriteRaw(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := checkSize(value, r.maxValueBytes); err != nil {
		return err
	}
	q, args, err := r.sb.Insert(stateTable).
		Columns("profile", "key", "value").
		Values(r.profile, key, value).
		Suffix("ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()").
		ToSql()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, q, args...); err != nil {
		var pgErr *pgconn.PgError
		// 54000 program_limit_exceeded: value larger than the row can hold.
		if errors.As(err, &pgErr) && pgErr.Code == "54000" {
			return ErrQuotaExceeded
		}
		return err
	}
	return nil
}

func (r *postgresRepo) EraseRaw(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	q, args, err := r.sb.Delete(stateTable).
		Where(sq.Eq{"profile": r.profile, "key": key}).
		ToSql()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	_, err = r.pool.Exec(ctx, q, args...)
	return err
}

func (r *postgresRepo) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.pool.Ping(ctx)
}
