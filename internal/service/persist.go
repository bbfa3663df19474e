package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Shivanand-hulikatti/event-seat-booking/internal/model"
)

// Snapshot returns the current state in its persisted form.
func (s *BookingService) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.Snapshot{
		Version:   model.SnapshotVersion,
		Events:    append([]model.Event{}, s.events...),
		Customers: append([]model.Customer{}, s.customers...),
		Bookings:  append([]model.Booking{}, s.bookings...),
	}
}

// Persist writes the registered events, customers and bookings to w.
// Collaborators are not part of the persisted state.
func (s *BookingService) Persist(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(encodeState(s.Snapshot())); err != nil {
		return fmt.Errorf("persist booking state: %w", err)
	}
	return nil
}

// Load restores a service from a stream written by Persist. Collaborators are
// attached through opts.
func Load(r io.Reader, opts ...Option) (*BookingService, error) {
	var doc stateDoc
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after state", ErrCorruptState)
	}
	return FromSnapshot(doc.snapshot(), opts...)
}

// FromSnapshot rebuilds a service from snap after checking that it describes
// a state the service could have reached.
func FromSnapshot(snap model.Snapshot, opts ...Option) (*BookingService, error) {
	if snap.Version != model.SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorruptState, snap.Version)
	}

	s := NewBookingService(opts...)
	s.events = append(s.events, snap.Events...)
	s.customers = append(s.customers, snap.Customers...)

	used := make(map[int]int)
	for _, b := range snap.Bookings {
		if !s.customerRegistered(b.Customer) {
			return nil, fmt.Errorf("%w: booking %s references unregistered customer", ErrCorruptState, b.ID)
		}
		ei := s.eventIndex(b.Event)
		if ei < 0 {
			return nil, fmt.Errorf("%w: booking %s references unregistered event %q", ErrCorruptState, b.ID, b.Event.ID)
		}
		if s.bookingIndex(b.Customer, b.Event) >= 0 {
			return nil, fmt.Errorf("%w: duplicate booking for customer %q on event %q", ErrCorruptState, b.Customer.Name, b.Event.ID)
		}
		used[ei] += b.Seats
		s.bookings = append(s.bookings, b)
	}

	// Only totals are bounded: a merge moves a booking to the end, so a
	// prefix of the list may exceed the seating on its own.
	for ei, n := range used {
		if n > s.events[ei].Seating {
			return nil, fmt.Errorf("%w: event %q is overbooked", ErrCorruptState, s.events[ei].ID)
		}
	}
	return s, nil
}

func (s *BookingService) eventIndex(e model.Event) int {
	for i, re := range s.events {
		if re.Equal(e) {
			return i
		}
	}
	return -1
}
