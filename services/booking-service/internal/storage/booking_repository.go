package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/belvedhair/booking/libs/db"
	"github.com/belvedhair/booking/services/booking-service/internal/availability"
	"github.com/belvedhair/booking/services/booking-service/internal/model"
	"github.com/belvedhair/booking/services/booking-service/internal/outbox"
	"github.com/jackc/pgx/v5"
)

// Repository is the Postgres-backed store. Overlapping active bookings of one
// staff member are rejected by the bookings_no_overlap exclusion constraint.
type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo}
}

const bookingColumns = `
	b.id::text, b.staff_id::text, COALESCE(s.name, ''), b.customer_name, b.phone_e164, b.email,
	b.start_time, b.end_time, b.status, b.cancelled_at, b.created_at`

func scanBooking(row pgx.Row) (model.Booking, error) {
	var b model.Booking
	var status string
	err := row.Scan(
		&b.ID,
		&b.StaffID,
		&b.StaffName,
		&b.CustomerName,
		&b.PhoneE164,
		&b.Email,
		&b.Start,
		&b.End,
		&status,
		&b.CancelledAt,
		&b.CreatedAt,
	)
	b.Status = model.BookingStatus(status)
	return b, err
}

func (r *Repository) InsertBooking(ctx context.Context, b model.Booking) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (staff_id, customer_name, phone_e164, email, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text, created_at
	`, b.StaffID, b.CustomerName, b.PhoneE164, b.Email, b.Start, b.End, string(b.Status)).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return "", mapError(err, "insert booking")
	}

	evt, err := outbox.NewBookingEvent(outbox.EventBookingBooked, b)
	if err != nil {
		return "", err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return "", fmt.Errorf("insert outbox event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", mapError(err, "commit booking")
	}
	return b.ID, nil
}

// CancelBooking marks the booking cancelled. Cancelling an already cancelled
// booking returns it unchanged and emits no event.
func (r *Repository) CancelBooking(ctx context.Context, id string) (model.Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Booking{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b, err := scanBooking(tx.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings b
		LEFT JOIN staff s ON s.id = b.staff_id
		WHERE b.id = $1
		FOR UPDATE OF b
	`, id))
	if err != nil {
		return model.Booking{}, mapError(err, "load booking")
	}
	if b.Status == model.StatusCancelled {
		return b, tx.Commit(ctx)
	}

	var cancelledAt time.Time
	if err := tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
			cancelled_at = now()
		WHERE id = $1
		RETURNING cancelled_at
	`, id).Scan(&cancelledAt); err != nil {
		return model.Booking{}, mapError(err, "cancel booking")
	}
	b.Status = model.StatusCancelled
	b.CancelledAt = &cancelledAt

	evt, err := outbox.NewBookingEvent(outbox.EventBookingCancelled, b)
	if err != nil {
		return model.Booking{}, err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Booking{}, fmt.Errorf("insert outbox event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// ListBookings returns bookings of any status overlapping [from, to), ordered
// by start. An empty staffID lists every staff member.
func (r *Repository) ListBookings(ctx context.Context, staffID string, from, to time.Time) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings b
		LEFT JOIN staff s ON s.id = b.staff_id
		WHERE b.during && tstzrange($1, $2, '[)')
			AND ($3 = '' OR b.staff_id::text = $3)
		ORDER BY b.start_time ASC
	`, from, to, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// BusyIntervals returns time-off blocks and active bookings of the staff member
// overlapping [from, to). Cancelled bookings are not busy.
func (r *Repository) BusyIntervals(ctx context.Context, staffID string, from, to time.Time) ([]availability.Interval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM staff_time_off
		WHERE staff_id::text = $1
			AND tstzrange(start_time, end_time, '[)') && tstzrange($2, $3, '[)')
		UNION ALL
		SELECT start_time, end_time
		FROM bookings
		WHERE staff_id::text = $1
			AND status IN ('pending', 'confirmed')
			AND during && tstzrange($2, $3, '[)')
	`, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) InsertPriorityRequest(ctx context.Context, p model.PriorityRequest) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO priority_requests (staff_id, customer_name, phone_e164, email, desired_time, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text
	`, p.StaffID, p.CustomerName, p.PhoneE164, p.Email, p.DesiredAt, p.Notes).Scan(&id)
	if err != nil {
		return "", mapError(err, "insert priority request")
	}
	return id, nil
}
