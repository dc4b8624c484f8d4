package observability

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgErrorClasses names the SQLSTATEs the user store is expected to hit.
var pgErrorClasses = map[string]string{
	"23505": "unique_violation",
	"23503": "foreign_key_violation",
	"23514": "check_violation",
	"22P02": "invalid_text_representation",
	"40001": "serialization_failure",
	"40P01": "deadlock",
	"57014": "query_canceled",
}

// ObserveDB times fn under the logical op name and counts its failures by class.
// It satisfies postgres.DBObserver.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start).Seconds()

	if err == nil {
		p.DbQueryDuration.WithLabelValues(op, "ok").Observe(elapsed)
		return nil
	}

	p.DbQueryDuration.WithLabelValues(op, "error").Observe(elapsed)
	p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()

	return err
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if class, ok := pgErrorClasses[pgErr.Code]; ok {
			return class
		}
		return "pg_" + pgErr.Code
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return "timeout"
	}

	var netErr net.Error
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.As(err, &netErr) || strings.Contains(strings.ToLower(err.Error()), "connection") {
		return "connection"
	}

	return "unknown"
}
