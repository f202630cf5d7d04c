package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/paintpro/appointments/internal/domain"
)

type BookingRepository interface {
	// BookSlot locks the slot, checks it against today and its capacity, and inserts booking, all
	// in one transaction. It returns the locked slot on success.
	BookSlot(ctx context.Context, booking *domain.Booking, today time.Time) (*domain.Slot, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	ListBySlot(ctx context.Context, slotID uuid.UUID) ([]domain.Booking, error)
}

const bookingColumns = `id, slot_id, lead_id, name, email, phone, address, notes, status, created_at, cancelled_at`

type PGBookingRepository struct {
	db          DB
	lockTimeout time.Duration
}

// NewBookingRepository builds the Postgres booking store. A positive lockTimeout bounds how long
// BookSlot waits for another transaction holding the slot row.
func NewBookingRepository(db DB, lockTimeout time.Duration) BookingRepository {
	return &PGBookingRepository{db: db, lockTimeout: lockTimeout}
}

func (r *PGBookingRepository) BookSlot(ctx context.Context, booking *domain.Booking, today time.Time) (*domain.Slot, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if r.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}

	slot, err := scanSlot(tx.QueryRow(ctx, `SELECT `+slotColumns+` FROM slots s WHERE s.id = $1 FOR UPDATE`, booking.SlotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, fmt.Errorf("lock slot %s: %w", booking.SlotID, err)
	}

	if err := slot.IsBookableOn(today); err != nil {
		return nil, err
	}

	var booked int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE slot_id = $1 AND status = $2`,
		slot.ID, string(domain.BookingStatusBooked)).Scan(&booked); err != nil {
		return nil, fmt.Errorf("count bookings for slot %s: %w", slot.ID, err)
	}
	if booked >= slot.Capacity {
		return nil, domain.ErrSlotFull
	}

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.Status = domain.BookingStatusBooked
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (id, slot_id, lead_id, name, email, phone, address, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		booking.ID, booking.SlotID, booking.LeadID, booking.Name, booking.Email, booking.Phone,
		booking.Address, booking.Notes, string(booking.Status)).
		Scan(&booking.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit booking tx: %w", err)
	}
	return slot, nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

// Cancel marks a booked booking cancelled. An already cancelled booking is returned unchanged.
func (r *PGBookingRepository) Cancel(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET status = $1, cancelled_at = now()
		WHERE id = $2 AND status = $3
		RETURNING `+bookingColumns,
		string(domain.BookingStatusCancelled), id, string(domain.BookingStatusBooked)))
	if errors.Is(err, pgx.ErrNoRows) {
		return r.GetByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("cancel booking %s: %w", id, err)
	}
	return b, nil
}

func (r *PGBookingRepository) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE slot_id = $1 ORDER BY created_at`, slotID)
	if err != nil {
		return nil, fmt.Errorf("list bookings for slot %s: %w", slotID, err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var status string
	if err := row.Scan(&b.ID, &b.SlotID, &b.LeadID, &b.Name, &b.Email, &b.Phone, &b.Address, &b.Notes,
		&status, &b.CreatedAt, &b.CancelledAt); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
