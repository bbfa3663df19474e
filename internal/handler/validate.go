package handler

import (
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/event-seat-booking/internal/model"
)

const maxSeating = 100_000

func validateCustomer(c model.Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(c.Address) == "" {
		return fmt.Errorf("address is required")
	}
	return nil
}

func validateEvent(req model.RegisterEventRequest) error {
	if strings.TrimSpace(req.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if req.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if req.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if req.Seating <= 0 {
		return fmt.Errorf("seating must be a positive integer")
	}
	if req.Seating > maxSeating {
		return fmt.Errorf("seating cannot exceed 100,000")
	}
	if !isValidEmail(req.OrganizerEmail) {
		return fmt.Errorf("organizer_email is not a valid email address")
	}
	return nil
}

func validateBooking(req model.CreateBookingRequest) error {
	if strings.TrimSpace(req.EventID) == "" {
		return fmt.Errorf("event_id is required")
	}
	if req.Seats < 1 {
		return fmt.Errorf("seats must be at least 1")
	}
	return nil
}

// isValidEmail does a basic structural check.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
