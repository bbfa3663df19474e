package service

import "errors"

// ErrNotRegistered is returned when an operation references a customer or
// event that was never registered.
var ErrNotRegistered = errors.New("customer or event not registered")

// ErrCapacityExceeded is returned when more seats are requested than are free.
var ErrCapacityExceeded = errors.New("not enough seats available")

// ErrBlacklistedCustomer is returned when the blacklist rejects the customer.
var ErrBlacklistedCustomer = errors.New("customer is blacklisted")

// ErrCorruptState is returned when persisted state cannot be restored.
var ErrCorruptState = errors.New("persisted booking state is corrupt")
