package service

import "github.com/google/uuid"

func newBookingID() string {
	return uuid.New().String()
}
