package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
)

// SQLSTATE codes the repositories translate into domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// inTx runs fn in a transaction that commits only when fn returns nil.
func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	return translateError(pgx.BeginFunc(ctx, pool, fn))
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			if strings.Contains(pgErr.ConstraintName, "email") {
				return domain.ErrEmailTaken
			}
			return domain.WrapError(domain.ErrCodeConflict, "duplicate record", err)
		case codeForeignKeyViolation:
			return domain.ErrUnknownUserRef
		}
	}
	return err
}

// likePattern escapes ILIKE wildcards so the search term matches literally.
func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}

func nullDate(d *domain.Date) interface{} {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.Time()
}

func toDate(t *time.Time) *domain.Date {
	if t == nil {
		return nil
	}
	d := domain.DateOf(*t)
	return &d
}
