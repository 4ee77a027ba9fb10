package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/criclink/criclink/go/internal/timeslot"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores bookings with pgx. WithinDay takes a transaction-scoped advisory
// lock on the (ground, date) key, so the lock and every write made through the Day release
// together at commit or rollback.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectBooking = `SELECT id, ground_id, booking_date::text, start_minute, end_minute, customer_name,
	contact, payment_amount, status, created_by, created_at, updated_at FROM bookings`

type pgDay struct {
	tx       pgx.Tx
	bookings []models.Booking
}

func (d *pgDay) Bookings() []models.Booking {
	out := make([]models.Booking, len(d.bookings))
	copy(out, d.bookings)
	return out
}

func (d *pgDay) Insert(ctx context.Context, b *models.Booking) error {
	_, err := d.tx.Exec(ctx, `
		INSERT INTO bookings (id, ground_id, booking_date, start_minute, end_minute, customer_name,
			contact, payment_amount, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		b.ID, b.GroundID, b.BookingDate.String(), int(b.TimeSlot.Start), int(b.TimeSlot.End), b.CustomerName,
		b.Contact, b.PaymentAmount, string(b.Status), b.CreatedBy, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	d.bookings = append(d.bookings, *b)
	return nil
}

func (d *pgDay) Update(ctx context.Context, b *models.Booking) error {
	tag, err := d.tx.Exec(ctx, `
		UPDATE bookings SET payment_amount = $2, status = $3, updated_at = $4 WHERE id = $1`,
		b.ID, b.PaymentAmount, string(b.Status), b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("booking", b.ID)
	}
	for i := range d.bookings {
		if d.bookings[i].ID == b.ID {
			d.bookings[i] = *b
		}
	}
	return nil
}

func (r *PostgresRepository) WithinDay(ctx context.Context, groundID uuid.UUID, date models.Date, fn func(ctx context.Context, day Day) error) error {
	return sqlutil.Run(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		key := groundID.String() + "/" + date.String()
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}

		rows, err := tx.Query(ctx, selectBooking+` WHERE ground_id = $1 AND booking_date = $2::date`, groundID, date.String())
		if err != nil {
			return fmt.Errorf("load bookings for %s: %w", key, err)
		}
		bs, err := collectBookings(rows)
		if err != nil {
			return err
		}
		return fn(ctx, &pgDay{tx: tx, bookings: bs})
	})
}

func (r *PostgresRepository) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	row := sqlutil.Conn(ctx, r.pool).QueryRow(ctx, selectBooking+` WHERE id = $1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("booking", id)
	}
	return b, err
}

func (r *PostgresRepository) ListByRange(ctx context.Context, groundID uuid.UUID, dr DateRange) ([]models.Booking, error) {
	rows, err := sqlutil.Conn(ctx, r.pool).Query(ctx, selectBooking+`
		WHERE ground_id = $1
		  AND booking_date >= COALESCE(NULLIF($2::text, '')::date, '-infinity'::date)
		  AND booking_date <= COALESCE(NULLIF($3::text, '')::date, 'infinity'::date)
		ORDER BY booking_date, start_minute`,
		groundID, dr.From.String(), dr.To.String())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return collectBookings(rows)
}

func (r *PostgresRepository) ListActiveDates(ctx context.Context, groundID uuid.UUID, dr DateRange) ([]models.Date, error) {
	rows, err := sqlutil.Conn(ctx, r.pool).Query(ctx, `
		SELECT DISTINCT booking_date::text FROM bookings
		WHERE ground_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND booking_date >= COALESCE(NULLIF($2::text, '')::date, '-infinity'::date)
		  AND booking_date <= COALESCE(NULLIF($3::text, '')::date, 'infinity'::date)
		ORDER BY 1`,
		groundID, dr.From.String(), dr.To.String())
	if err != nil {
		return nil, fmt.Errorf("list active dates: %w", err)
	}
	defer rows.Close()

	var out []models.Date
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, models.Date(d))
	}
	return out, rows.Err()
}

func collectBookings(rows pgx.Rows) ([]models.Booking, error) {
	defer rows.Close()
	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var (
		b          models.Booking
		date       string
		start, end int
		status     string
	)
	err := row.Scan(&b.ID, &b.GroundID, &date, &start, &end, &b.CustomerName,
		&b.Contact, &b.PaymentAmount, &status, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.BookingDate = models.Date(date)
	b.TimeSlot = timeslot.Slot{Start: timeslot.TimeOfDay(start), End: timeslot.TimeOfDay(end)}
	b.Status = models.BookingStatus(status)
	return &b, nil
}
