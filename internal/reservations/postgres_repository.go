package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository stores holds and bookings in the relational database.
// Reservation correctness rests on the database: check-then-insert sequences
// run under serializable isolation, never behind an application mutex.
type PostgresRepository struct {
	pool db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool db) *PostgresRepository {
	if pool == nil {
		panic("reservations: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// InTx runs fn in a serializable transaction, retrying once on a
// serialization failure. A second failure maps to ErrSlotTaken: the
// competing reservation committed first.
func (r *PostgresRepository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := beginSerializable(ctx, r.pool, fn)
	if !isSerializationFailure(err) {
		return err
	}
	if err = beginSerializable(ctx, r.pool, fn); isSerializationFailure(err) {
		return ErrSlotTaken
	}
	return err
}

func (r *PostgresRepository) CountBookingsOverlapping(ctx context.Context, serviceID int64, start, end time.Time) (int, error) {
	const query = `
		SELECT COUNT(*) FROM bookings
		WHERE service_id = $1 AND start_time < $3 AND end_time > $2`

	var count int
	if err := r.queryRow(ctx, query, serviceID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("reservations: count overlapping bookings: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) CountLiveHoldsOverlapping(ctx context.Context, serviceID int64, start, end, now time.Time) (int, error) {
	const query = `
		SELECT COUNT(*) FROM holds
		WHERE service_id = $1 AND start_time < $3 AND end_time > $2 AND expires_at > $4`

	var count int
	if err := r.queryRow(ctx, query, serviceID, start, end, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("reservations: count overlapping holds: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) InsertHold(ctx context.Context, hold *Hold) error {
	const stmt = `
		INSERT INTO holds (id, service_id, start_time, end_time, session_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		hold.ID,
		hold.ServiceID,
		hold.Start,
		hold.End,
		hold.SessionID,
		hold.ExpiresAt,
		hold.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("reservations: insert hold: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetHold(ctx context.Context, id uuid.UUID) (*Hold, error) {
	const query = `
		SELECT id, service_id, start_time, end_time, session_id, expires_at, created_at
		FROM holds WHERE id = $1`

	var h Hold
	err := r.queryRow(ctx, query, id).Scan(
		&h.ID, &h.ServiceID, &h.Start, &h.End, &h.SessionID, &h.ExpiresAt, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("reservations: select hold: %w", err)
	}
	return &h, nil
}

func (r *PostgresRepository) DeleteHold(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.exec(ctx, `DELETE FROM holds WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("reservations: delete hold: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) DeleteExpiredHolds(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.exec(ctx, `DELETE FROM holds WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, fmt.Errorf("reservations: delete expired holds: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) InsertBooking(ctx context.Context, booking *Booking) error {
	const stmt = `
		INSERT INTO bookings (id, service_id, start_time, end_time, customer_name, customer_phone, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.exec(ctx, stmt,
		booking.ID,
		booking.ServiceID,
		booking.Start,
		booking.End,
		booking.CustomerName,
		booking.CustomerPhone,
		booking.Notes,
		booking.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("reservations: insert booking: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteBooking(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("reservations: delete booking: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const bookingColumns = `b.id, b.service_id, s.name, b.start_time, b.end_time, b.customer_name, b.customer_phone, b.notes, b.created_at`

func (r *PostgresRepository) BookingsInWindow(ctx context.Context, serviceID int64, from, to time.Time) ([]*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b JOIN services s ON s.id = b.service_id
		WHERE b.service_id = $1 AND b.start_time < $3 AND b.end_time > $2
		ORDER BY b.start_time`
	return r.queryBookings(ctx, query, serviceID, from, to)
}

func (r *PostgresRepository) LiveHoldsInWindow(ctx context.Context, serviceID int64, from, to, now time.Time) ([]*Hold, error) {
	const query = `
		SELECT id, service_id, start_time, end_time, session_id, expires_at, created_at
		FROM holds
		WHERE service_id = $1 AND start_time < $3 AND end_time > $2 AND expires_at > $4
		ORDER BY start_time`

	rows, err := r.query(ctx, query, serviceID, from, to, now)
	if err != nil {
		return nil, fmt.Errorf("reservations: list holds: %w", err)
	}
	defer rows.Close()

	var out []*Hold
	for rows.Next() {
		var h Hold
		if err := rows.Scan(&h.ID, &h.ServiceID, &h.Start, &h.End, &h.SessionID, &h.ExpiresAt, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("reservations: scan hold: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListBookings(ctx context.Context, serviceID int64, from, to time.Time) ([]*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b JOIN services s ON s.id = b.service_id
		WHERE ($1 = 0 OR b.service_id = $1)
		  AND ($2::timestamptz IS NULL OR (b.start_time < $3 AND b.end_time > $2))
		ORDER BY b.start_time`

	var fromArg, toArg any
	if !from.IsZero() {
		fromArg, toArg = from, to
	}
	return r.queryBookings(ctx, query, serviceID, fromArg, toArg)
}

func (r *PostgresRepository) queryBookings(ctx context.Context, query string, args ...any) ([]*Booking, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reservations: list bookings: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.ServiceID, &b.ServiceName, &b.Start, &b.End,
			&b.CustomerName, &b.CustomerPhone, &b.Notes, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("reservations: scan booking: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *PostgresRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
