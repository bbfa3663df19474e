// Package model defines the core domain types for the seat booking system.
package model

import "time"

// Customer is a person who books seats. Two customers with the same name and
// address are the same customer.
type Customer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Event represents a bookable occasion with a fixed seating capacity.
type Event struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Date           time.Time `json:"date"`
	Price          int       `json:"price"`
	Seating        int       `json:"seating"`
	OrganizerEmail string    `json:"organizer_email"`
}

// Equal reports whether e and o describe the same event. Dates are compared
// as instants so a value restored from a snapshot equals the original.
func (e Event) Equal(o Event) bool {
	return e.ID == o.ID &&
		e.Title == o.Title &&
		e.Date.Equal(o.Date) &&
		e.Price == o.Price &&
		e.Seating == o.Seating &&
		e.OrganizerEmail == o.OrganizerEmail
}

// Booking records the seats one customer holds for one event.
type Booking struct {
	ID       string   `json:"id"`
	Customer Customer `json:"customer"`
	Event    Event    `json:"event"`
	Seats    int      `json:"seats"`
}

// Equal reports whether b and o are the same booking.
func (b Booking) Equal(o Booking) bool {
	return b.ID == o.ID &&
		b.Customer == o.Customer &&
		b.Event.Equal(o.Event) &&
		b.Seats == o.Seats
}

// Belongs reports whether the booking is for the given customer and event.
func (b Booking) Belongs(c Customer, e Event) bool {
	return b.Customer == c && b.Event.Equal(e)
}

// SnapshotVersion is the current persisted state format.
const SnapshotVersion = 1

// Snapshot is a point-in-time copy of the whole booking state.
type Snapshot struct {
	Version   int        `json:"version"`
	Events    []Event    `json:"events"`
	Customers []Customer `json:"customers"`
	Bookings  []Booking  `json:"bookings"`
}

// RegisterCustomerRequest is the payload for registering a customer.
type RegisterCustomerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// RegisterEventRequest is the payload for registering an event.
type RegisterEventRequest struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Date           time.Time `json:"date"`
	Price          int       `json:"price"`
	Seating        int       `json:"seating"`
	OrganizerEmail string    `json:"organizer_email"`
}

// CreateBookingRequest is the payload for booking seats.
type CreateBookingRequest struct {
	Customer Customer `json:"customer"`
	EventID  string   `json:"event_id"`
	Seats    int      `json:"seats"`
}

// SeatsResponse reports the free capacity of an event.
type SeatsResponse struct {
	EventID   string `json:"event_id"`
	Seating   int    `json:"seating"`
	Available int    `json:"available"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
