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

type SlotRepository interface {
	ListAvailable(ctx context.Context, after time.Time) ([]domain.SlotAvailability, error)
	GetAvailability(ctx context.Context, id uuid.UUID) (*domain.SlotAvailability, error)
	Create(ctx context.Context, slot *domain.Slot) error
	SetStatus(ctx context.Context, id uuid.UUID, status domain.SlotStatus) (*domain.Slot, error)
	CloseThrough(ctx context.Context, day time.Time) (int64, error)
}

const slotColumns = `s.id, s.slot_date, to_char(s.start_time, 'HH24:MI'), to_char(s.end_time, 'HH24:MI'), s.capacity, s.status, s.created_at`

const availabilityQuery = `SELECT ` + slotColumns + `,
	count(b.id) FILTER (WHERE b.status = 'booked')
	FROM slots s
	LEFT JOIN bookings b ON b.slot_id = s.id`

type PGSlotRepository struct {
	db DB
}

func NewSlotRepository(db DB) SlotRepository {
	return &PGSlotRepository{db: db}
}

// ListAvailable returns open slots dated strictly after the given day that still have room.
func (r *PGSlotRepository) ListAvailable(ctx context.Context, after time.Time) ([]domain.SlotAvailability, error) {
	rows, err := r.db.Query(ctx, availabilityQuery+`
	WHERE s.status = 'open' AND s.slot_date > $1
	GROUP BY s.id
	HAVING count(b.id) FILTER (WHERE b.status = 'booked') < s.capacity
	ORDER BY s.slot_date, s.start_time`, after)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	defer rows.Close()

	slots := make([]domain.SlotAvailability, 0)
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *a)
	}
	return slots, rows.Err()
}

func (r *PGSlotRepository) GetAvailability(ctx context.Context, id uuid.UUID) (*domain.SlotAvailability, error) {
	row := r.db.QueryRow(ctx, availabilityQuery+`
	WHERE s.id = $1
	GROUP BY s.id`, id)
	a, err := scanAvailability(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSlotNotFound
	}
	return a, err
}

func (r *PGSlotRepository) Create(ctx context.Context, slot *domain.Slot) error {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	if slot.Status == "" {
		slot.Status = domain.SlotStatusOpen
	}
	err := r.db.QueryRow(ctx, `INSERT INTO slots (id, slot_date, start_time, end_time, capacity, status)
		VALUES ($1, $2, $3::text::time, $4::text::time, $5, $6)
		RETURNING created_at`, slot.ID, slot.Date, slot.StartTime, slot.EndTime, slot.Capacity, string(slot.Status)).
		Scan(&slot.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func (r *PGSlotRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.SlotStatus) (*domain.Slot, error) {
	row := r.db.QueryRow(ctx, `UPDATE slots s SET status = $1 WHERE s.id = $2 RETURNING `+slotColumns, string(status), id)
	slot, err := scanSlot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSlotNotFound
	}
	return slot, err
}

// CloseThrough closes every open slot dated on or before day.
func (r *PGSlotRepository) CloseThrough(ctx context.Context, day time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE slots SET status = 'closed' WHERE status = 'open' AND slot_date <= $1`, day)
	if err != nil {
		return 0, fmt.Errorf("close past slots: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSlot(row rowScanner) (*domain.Slot, error) {
	var s domain.Slot
	var status string
	if err := row.Scan(&s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.Capacity, &status, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Status = domain.SlotStatus(status)
	return &s, nil
}

func scanAvailability(row rowScanner) (*domain.SlotAvailability, error) {
	var a domain.SlotAvailability
	var status string
	if err := row.Scan(&a.ID, &a.Date, &a.StartTime, &a.EndTime, &a.Capacity, &status, &a.CreatedAt, &a.Booked); err != nil {
		return nil, err
	}
	a.Status = domain.SlotStatus(status)
	return &a, nil
}

var _ SlotRepository = (*PGSlotRepository)(nil)
