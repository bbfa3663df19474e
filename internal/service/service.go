// Package service implements seat accounting and booking authorization for
// registered customers and events.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-seat-booking/internal/model"
)

// BlacklistChecker reports whether a customer is barred from booking.
type BlacklistChecker interface {
	IsCustomerBlacklisted(ctx context.Context, c model.Customer) (bool, error)
}

// Notifier delivers a mail to an event organizer.
type Notifier interface {
	SendMail(ctx context.Context, recipientEmail, body string) error
}

// BookingService owns the registered customers and events and the active
// bookings made against them. All methods are safe for concurrent use.
type BookingService struct {
	mu sync.Mutex

	events    []model.Event
	customers []model.Customer
	bookings  []model.Booking

	blacklist BlacklistChecker
	notifier  Notifier
	newID     func() string
}

// Option configures a BookingService.
type Option func(*BookingService)

// WithBlacklist attaches a blacklist collaborator consulted on every booking.
func WithBlacklist(b BlacklistChecker) Option {
	return func(s *BookingService) {
		s.blacklist = b
	}
}

// WithNotifier attaches a collaborator told about large bookings.
func WithNotifier(n Notifier) Option {
	return func(s *BookingService) {
		s.notifier = n
	}
}

// WithIDGenerator overrides how booking ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *BookingService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewBookingService constructs an empty BookingService.
func NewBookingService(opts ...Option) *BookingService {
	s := &BookingService{newID: newBookingID}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterCustomer records a new customer and returns it.
func (s *BookingService) RegisterCustomer(name, address string) model.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := model.Customer{Name: name, Address: address}
	s.customers = append(s.customers, c)
	return c
}

// RegisterEvent records a new event and returns it. Ids are not checked for
// uniqueness.
func (s *BookingService) RegisterEvent(id, title string, date time.Time, price, seating int, organizerEmail string) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := model.Event{
		ID:             id,
		Title:          title,
		Date:           date.Round(0),
		Price:          price,
		Seating:        seating,
		OrganizerEmail: organizerEmail,
	}
	s.events = append(s.events, e)
	return e
}

// Events returns a copy of the registered events in registration order.
func (s *BookingService) Events() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Event(nil), s.events...)
}

// Customers returns a copy of the registered customers in registration order.
func (s *BookingService) Customers() []model.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Customer(nil), s.customers...)
}

// Bookings returns a copy of the active bookings.
func (s *BookingService) Bookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Booking(nil), s.bookings...)
}

// EventByID returns the first registered event with the given id.
func (s *BookingService) EventByID(id string) (model.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}

func (s *BookingService) customerRegistered(c model.Customer) bool {
	for _, rc := range s.customers {
		if rc == c {
			return true
		}
	}
	return false
}

func (s *BookingService) eventRegistered(e model.Event) bool {
	return s.eventIndex(e) >= 0
}
