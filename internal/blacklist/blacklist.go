// Package blacklist keeps the set of customers barred from booking in Redis.
package blacklist

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-seat-booking/internal/model"
	"github.com/redis/go-redis/v9"
)

// ErrInvalidCustomer is returned for a customer without a name.
var ErrInvalidCustomer = errors.New("customer name is required")

// Store is a Redis set of blacklisted customers.
type Store struct {
	client *redis.Client
	key    string
}

// New returns a Store keeping its members in the set at key.
func New(client *redis.Client, key string) *Store {
	return &Store{client: client, key: key}
}

// NewClient opens a Redis client for the blacklist.
func NewClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr, Password: pass, DB: db,
	})
}

// member encodes a customer as a set member. Customers are identified by
// name and address together.
func member(c model.Customer) string {
	return fmt.Sprintf("%d:%s|%s", len(c.Name), c.Name, c.Address)
}

// IsCustomerBlacklisted reports whether c is in the set.
func (s *Store) IsCustomerBlacklisted(ctx context.Context, c model.Customer) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, member(c)).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return ok, nil
}

// Add bars a customer from booking. It reports whether the customer was
// newly added.
func (s *Store) Add(ctx context.Context, c model.Customer) (bool, error) {
	if c.Name == "" {
		return false, ErrInvalidCustomer
	}
	n, err := s.client.SAdd(ctx, s.key, member(c)).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist add: %w", err)
	}
	return n > 0, nil
}

// Remove lifts a ban. It reports whether the customer was on the list.
func (s *Store) Remove(ctx context.Context, c model.Customer) (bool, error) {
	n, err := s.client.SRem(ctx, s.key, member(c)).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist remove: %w", err)
	}
	return n > 0, nil
}

// Size returns the number of blacklisted customers.
func (s *Store) Size(ctx context.Context) (int64, error) {
	n, err := s.client.SCard(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("blacklist size: %w", err)
	}
	return n, nil
}

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
