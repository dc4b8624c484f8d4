package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id::text, name, email, password_hash, status, role, created_at, updated_at`

// DBObserver records latency and error class per logical DB operation.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

type UsersRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewUsersRepo(pool *pgxpool.Pool, obs DBObserver) *UsersRepo {
	return &UsersRepo{pool: pool, obs: obs}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.obs == nil {
		return fn()
	}
	return r.obs.ObserveDB(op, fn)
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, status, role, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Status, u.Role, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		return scanUser(r.pool.QueryRow(ctx, query, arg), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// Search pages users ordered by name, optionally filtered by a
// case-insensitive substring of the name.
func (r *UsersRepo) Search(ctx context.Context, filter user.SearchFilter) ([]user.User, int, error) {
	var (
		where string
		args  []interface{}
	)

	argsPosition := 1

	if filter.Name != nil {
		where = fmt.Sprintf(" WHERE name ILIKE $%d", argsPosition)
		args = append(args, "%"+escapeLike(*filter.Name)+"%")
		argsPosition++
	}

	// stable ordering for pagination
	query := `SELECT ` + userColumns + `, COUNT(*) OVER() AS total FROM users` + where +
		fmt.Sprintf(" ORDER BY name ASC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	pageArgs := append(append([]interface{}{}, args...), filter.Size, filter.Offset())

	output := make([]user.User, 0, filter.Size)
	total := 0

	err := r.observe("users.search", func() error {
		rows, err := r.pool.Query(ctx, query, pageArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var u user.User

			err = rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Status, &u.Role, &u.CreatedAt, &u.UpdatedAt, &total)
			if err != nil {
				return err
			}

			output = append(output, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	// the window count is lost when the offset runs past the last row
	if len(output) == 0 && filter.Offset() > 0 {
		err = r.observe("users.count", func() error {
			return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total)
		})
		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

// Update loads the row under FOR UPDATE, lets fn mutate it and writes it back
// in the same transaction, so concurrent updates to one id serialize.
func (r *UsersRepo) Update(ctx context.Context, id string, fn func(*user.User) error) (user.User, error) {
	var u user.User

	err := r.observe("users.update", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}

		defer func() { _ = tx.Rollback(ctx) }()

		err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id), &u)
		if err != nil {
			return err
		}

		if err := fn(&u); err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`UPDATE users
				SET name = $2,
						email = $3,
						password_hash = $4,
						status = $5,
						role = $6,
						updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`,
			id, u.Name, u.Email, u.PasswordHash, u.Status, u.Role,
		).Scan(&u.UpdatedAt)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		switch {
		// if there are no rows matching the id
		case errors.Is(err, pgx.ErrNoRows):
			return user.User{}, user.ErrNotFound
		case isUniqueViolation(err):
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		if isIntegrityViolation(err) {
			return fmt.Errorf("%w: %s", user.ErrIntegrity, constraintName(err))
		}
		return err
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return user.ErrNotFound
	}

	return nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanUser(row pgx.Row, u *user.User) error {
	return row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Status,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SQLSTATE class 23: integrity constraint violation
func isIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23")
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return "constraint"
}
