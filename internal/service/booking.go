package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/event-seat-booking/internal/model"
)

// AvailableSeats returns the seating of a registered event minus the seats
// held by its bookings.
func (s *BookingService) AvailableSeats(e model.Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.availableSeats(e)
}

func (s *BookingService) availableSeats(e model.Event) (int, error) {
	if !s.eventRegistered(e) {
		return 0, fmt.Errorf("available seats for event %q: %w", e.ID, ErrNotRegistered)
	}

	used := 0
	for _, b := range s.bookings {
		if b.Event.Equal(e) {
			used += b.Seats
		}
	}
	return e.Seating - used, nil
}

// CreateBooking books seats for a customer on an event. A customer who
// already holds seats for the event gets a single combined booking with a new
// id; the previous booking is dropped.
//
// The capacity check compares the requested seats against the currently free
// seats, before any existing booking for the pair is merged in. Any seat
// count passes through, including zero and negative values.
//
// The blacklist and the notifier are called while the service lock is held,
// so a slow collaborator delays every other call on the service.
func (s *BookingService) CreateBooking(ctx context.Context, c model.Customer, e model.Event, requestedSeats int) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.customerRegistered(c) || !s.eventRegistered(e) {
		return model.Booking{}, fmt.Errorf("create booking: %w", ErrNotRegistered)
	}

	available, err := s.availableSeats(e)
	if err != nil {
		return model.Booking{}, err
	}
	if available < requestedSeats {
		return model.Booking{}, fmt.Errorf("requested %d seats, %d available: %w", requestedSeats, available, ErrCapacityExceeded)
	}

	if s.blacklist != nil {
		blocked, err := s.blacklist.IsCustomerBlacklisted(ctx, c)
		if err != nil {
			return model.Booking{}, fmt.Errorf("check blacklist: %w", err)
		}
		if blocked {
			return model.Booking{}, ErrBlacklistedCustomer
		}
	}

	if s.notifier != nil && largeBooking(requestedSeats, e.Seating) {
		if err := s.notifier.SendMail(ctx, e.OrganizerEmail, ""); err != nil {
			return model.Booking{}, fmt.Errorf("notify organizer: %w", err)
		}
	}

	total := requestedSeats
	if i := s.bookingIndex(c, e); i >= 0 {
		total += s.bookings[i].Seats
		s.bookings = append(s.bookings[:i], s.bookings[i+1:]...)
	}

	b := model.Booking{
		ID:       s.newID(),
		Customer: c,
		Event:    e,
		Seats:    total,
	}
	s.bookings = append(s.bookings, b)
	return b, nil
}

// largeBooking reports whether requested is at least a tenth of seating,
// i.e. requested*10 >= seating, without overflowing.
func largeBooking(requested, seating int) bool {
	// Integer division truncates toward zero, which is the ceiling for
	// negative seating.
	threshold := seating / 10
	if seating%10 > 0 {
		threshold++
	}
	return requested >= threshold
}

// CustomerBookingForEvent returns the customer's booking for the event. The
// boolean is false when both are registered but no booking exists.
func (s *BookingService) CustomerBookingForEvent(c model.Customer, e model.Event) (model.Booking, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.customerRegistered(c) || !s.eventRegistered(e) {
		return model.Booking{}, false, fmt.Errorf("booking lookup: %w", ErrNotRegistered)
	}

	i := s.bookingIndex(c, e)
	if i < 0 {
		return model.Booking{}, false, nil
	}
	return s.bookings[i], true, nil
}

func (s *BookingService) bookingIndex(c model.Customer, e model.Event) int {
	for i, b := range s.bookings {
		if b.Belongs(c, e) {
			return i
		}
	}
	return -1
}
