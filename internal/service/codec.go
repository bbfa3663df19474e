package service

import (
	"encoding/json"
	"time"

	"github.com/Shivanand-hulikatti/event-seat-booking/internal/model"
)

// stateDoc is the stream layout written by Persist. It mirrors
// model.Snapshot except for event dates, which use instant.
type stateDoc struct {
	Version   int              `json:"version"`
	Events    []eventDoc       `json:"events"`
	Customers []model.Customer `json:"customers"`
	Bookings  []bookingDoc     `json:"bookings"`
}

type eventDoc struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Date           instant `json:"date"`
	Price          int     `json:"price"`
	Seating        int     `json:"seating"`
	OrganizerEmail string  `json:"organizer_email"`
}

type bookingDoc struct {
	ID       string         `json:"id"`
	Customer model.Customer `json:"customer"`
	Event    eventDoc       `json:"event"`
	Seats    int            `json:"seats"`
}

// instant encodes a time.Time through its binary form, which covers every
// representable year. RFC 3339 text stops at 9999.
type instant time.Time

func (i instant) MarshalJSON() ([]byte, error) {
	b, err := time.Time(i).UTC().MarshalBinary()
	if err != nil {
		return nil, err
	}
	return json.Marshal(b)
}

func (i *instant) UnmarshalJSON(data []byte) error {
	var b []byte
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	var t time.Time
	if err := t.UnmarshalBinary(b); err != nil {
		return err
	}
	*i = instant(t)
	return nil
}

func encodeEvent(e model.Event) eventDoc {
	return eventDoc{
		ID:             e.ID,
		Title:          e.Title,
		Date:           instant(e.Date),
		Price:          e.Price,
		Seating:        e.Seating,
		OrganizerEmail: e.OrganizerEmail,
	}
}

func (d eventDoc) event() model.Event {
	return model.Event{
		ID:             d.ID,
		Title:          d.Title,
		Date:           time.Time(d.Date),
		Price:          d.Price,
		Seating:        d.Seating,
		OrganizerEmail: d.OrganizerEmail,
	}
}

func encodeState(snap model.Snapshot) stateDoc {
	doc := stateDoc{
		Version:   snap.Version,
		Events:    make([]eventDoc, 0, len(snap.Events)),
		Customers: snap.Customers,
		Bookings:  make([]bookingDoc, 0, len(snap.Bookings)),
	}
	for _, e := range snap.Events {
		doc.Events = append(doc.Events, encodeEvent(e))
	}
	for _, b := range snap.Bookings {
		doc.Bookings = append(doc.Bookings, bookingDoc{ID: b.ID, Customer: b.Customer, Event: encodeEvent(b.Event), Seats: b.Seats})
	}
	return doc
}

func (d stateDoc) snapshot() model.Snapshot {
	snap := model.Snapshot{
		Version:   d.Version,
		Events:    make([]model.Event, 0, len(d.Events)),
		Customers: d.Customers,
		Bookings:  make([]model.Booking, 0, len(d.Bookings)),
	}
	for _, e := range d.Events {
		snap.Events = append(snap.Events, e.event())
	}
	for _, b := range d.Bookings {
		snap.Bookings = append(snap.Bookings, model.Booking{ID: b.ID, Customer: b.Customer, Event: b.Event.event(), Seats: b.Seats})
	}
	return snap
}
