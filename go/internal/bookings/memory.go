package bookings

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/google/uuid"
	"github.com/moby/locker"
)

type dayKey struct {
	ground uuid.UUID
	date   models.Date
}

func (k dayKey) String() string { return k.ground.String() + "/" + k.date.String() }

// MemoryRepository keeps bookings in process. Writes to one (ground, date) are serialized
// by a per-key lock and staged until the WithinDay callback returns nil.
type MemoryRepository struct {
	locks *locker.Locker

	mu    sync.RWMutex
	days  map[dayKey][]models.Booking
	index map[uuid.UUID]dayKey
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		locks: locker.New(),
		days:  map[dayKey][]models.Booking{},
		index: map[uuid.UUID]dayKey{},
	}
}

type stagedDay struct {
	key      dayKey
	bookings []models.Booking
}

func (d *stagedDay) Bookings() []models.Booking {
	out := make([]models.Booking, len(d.bookings))
	copy(out, d.bookings)
	return out
}

func (d *stagedDay) Insert(_ context.Context, b *models.Booking) error {
	if b.GroundID != d.key.ground || b.BookingDate != d.key.date {
		return fmt.Errorf("booking %s does not belong to %s", b.ID, d.key)
	}
	d.bookings = append(d.bookings, *b)
	return nil
}

func (d *stagedDay) Update(_ context.Context, b *models.Booking) error {
	for i := range d.bookings {
		if d.bookings[i].ID == b.ID {
			d.bookings[i] = *b
			return nil
		}
	}
	return apperrors.NotFound("booking", b.ID)
}

func (r *MemoryRepository) WithinDay(ctx context.Context, groundID uuid.UUID, date models.Date, fn func(ctx context.Context, day Day) error) error {
	key := dayKey{ground: groundID, date: date}
	r.locks.Lock(key.String())
	defer func() { _ = r.locks.Unlock(key.String()) }()

	r.mu.RLock()
	staged := &stagedDay{key: key, bookings: append([]models.Booking(nil), r.days[key]...)}
	r.mu.RUnlock()

	if err := fn(ctx, staged); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.days[key] = staged.bookings
	for _, b := range staged.bookings {
		r.index[b.ID] = key
	}
	return nil
}

func (r *MemoryRepository) GetBooking(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.index[id]
	if !ok {
		return nil, apperrors.NotFound("booking", id)
	}
	for _, b := range r.days[key] {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, apperrors.NotFound("booking", id)
}

func (r *MemoryRepository) ListByRange(_ context.Context, groundID uuid.UUID, dr DateRange) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Booking
	for key, bs := range r.days {
		if key.ground == groundID && dr.Contains(key.date) {
			out = append(out, bs...)
		}
	}
	SortBookings(out)
	return out, nil
}

func (r *MemoryRepository) ListActiveDates(_ context.Context, groundID uuid.UUID, dr DateRange) ([]models.Date, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Date
	for key, bs := range r.days {
		if key.ground != groundID || !dr.Contains(key.date) {
			continue
		}
		for _, b := range bs {
			if b.Status.Blocks() {
				out = append(out, key.date)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
