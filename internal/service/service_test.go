package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-seat-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-seat-booking/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBlacklist struct{ mock.Mock }

func (m *MockBlacklist) IsCustomerBlacklisted(ctx context.Context, c model.Customer) (bool, error) {
	args := m.Called(ctx, c)
	return args.Bool(0), args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) SendMail(ctx context.Context, to, body string) error {
	return m.Called(ctx, to, body).Error(0)
}

var (
	eventDate       = time.Date(2026, 11, 7, 19, 30, 0, 0, time.UTC)
	defaultEvent    = model.Event{ID: "1234", Title: "fun", Date: eventDate, Price: 300, Seating: 100, OrganizerEmail: "org@example.com"}
	defaultCustomer = model.Customer{Name: "Olaf", Address: "Street 1"}
)

func registerDefaults(svc *service.BookingService) (model.Customer, model.Event) {
	c := svc.RegisterCustomer(defaultCustomer.Name, defaultCustomer.Address)
	e := svc.RegisterEvent(defaultEvent.ID, defaultEvent.Title, defaultEvent.Date, defaultEvent.Price, defaultEvent.Seating, defaultEvent.OrganizerEmail)
	return c, e
}

func TestRegistry_RegisterAndList(t *testing.T) {
	svc := service.NewBookingService()

	assert.Empty(t, svc.Events())
	assert.Empty(t, svc.Customers())

	c, e := registerDefaults(svc)

	assert.Equal(t, defaultCustomer, c)
	assert.True(t, defaultEvent.Equal(e))
	assert.Equal(t, []model.Customer{defaultCustomer}, svc.Customers())
	require.Len(t, svc.Events(), 1)
	assert.True(t, svc.Events()[0].Equal(defaultEvent))
}

func TestRegistry_ListsAreSnapshots(t *testing.T) {
	svc := service.NewBookingService()
	registerDefaults(svc)

	events := svc.Events()
	events[0].Seating = 1
	customers := svc.Customers()
	customers[0].Name = "Mallory"

	assert.Equal(t, 100, svc.Events()[0].Seating)
	assert.Equal(t, []model.Customer{defaultCustomer}, svc.Customers())
}

func TestRegistry_DuplicateEventIDsAllowed(t *testing.T) {
	svc := service.NewBookingService()
	svc.RegisterEvent("1", "a", eventDate, 10, 10, "")
	svc.RegisterEvent("1", "b", eventDate, 10, 20, "")

	assert.Len(t, svc.Events(), 2)
	e, ok := svc.EventByID("1")
	require.True(t, ok)
	assert.Equal(t, "a", e.Title)

	_, ok = svc.EventByID("missing")
	assert.False(t, ok)
}

func TestAvailableSeats(t *testing.T) {
	t.Run("full capacity when nothing booked", func(t *testing.T) {
		svc := service.NewBookingService()
		_, e := registerDefaults(svc)

		seats, err := svc.AvailableSeats(e)
		require.NoError(t, err)
		assert.Equal(t, 100, seats)
	})

	t.Run("unregistered event", func(t *testing.T) {
		svc := service.NewBookingService()

		_, err := svc.AvailableSeats(defaultEvent)
		assert.ErrorIs(t, err, service.ErrNotRegistered)
	})

	t.Run("event differing in one field is not registered", func(t *testing.T) {
		svc := service.NewBookingService()
		_, e := registerDefaults(svc)

		other := e
		other.Price = 1
		_, err := svc.AvailableSeats(other)
		assert.ErrorIs(t, err, service.ErrNotRegistered)
	})

	t.Run("same instant in another zone is the same event", func(t *testing.T) {
		svc := service.NewBookingService()
		_, e := registerDefaults(svc)

		other := e
		other.Date = e.Date.In(time.FixedZone("CET", 3600))
		seats, err := svc.AvailableSeats(other)
		require.NoError(t, err)
		assert.Equal(t, 100, seats)
	})

	t.Run("only bookings of the event count", func(t *testing.T) {
		svc := service.NewBookingService()
		c, e := registerDefaults(svc)
		second := svc.RegisterEvent("123", "test", eventDate, 100, 50, "")

		_, err := svc.CreateBooking(context.Background(), c, e, 10)
		require.NoError(t, err)
		_, err = svc.CreateBooking(context.Background(), c, second, 5)
		require.NoError(t, err)

		seats, err := svc.AvailableSeats(e)
		require.NoError(t, err)
		assert.Equal(t, 90, seats)
		seats, err = svc.AvailableSeats(second)
		require.NoError(t, err)
		assert.Equal(t, 45, seats)
	})
}

func TestCreateBooking_CombinesBookingsForSamePair(t *testing.T) {
	svc := service.NewBookingService()
	c, e := registerDefaults(svc)
	ctx := context.Background()

	first, err := svc.CreateBooking(ctx, c, e, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Seats)
	seats, _ := svc.AvailableSeats(e)
	assert.Equal(t, 98, seats)

	second, err := svc.CreateBooking(ctx, c, e, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, second.Seats)
	assert.NotEqual(t, first.ID, second.ID)
	seats, _ = svc.AvailableSeats(e)
	assert.Equal(t, 96, seats)

	bookings := svc.Bookings()
	require.Len(t, bookings, 1)
	assert.True(t, bookings[0].Equal(second))
}

func TestCreateBooking_AllSeats(t *testing.T) {
	svc := service.NewBookingService()
	c, e := registerDefaults(svc)

	b, err := svc.CreateBooking(context.Background(), c, e, e.Seating)
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)

	seats, err := svc.AvailableSeats(e)
	require.NoError(t, err)
	assert.Zero(t, seats)
}

func TestCreateBooking_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unregistered customer", func(t *testing.T) {
		svc := service.NewBookingService()
		e := svc.RegisterEvent(defaultEvent.ID, defaultEvent.Title, defaultEvent.Date, defaultEvent.Price, defaultEvent.Seating, "")

		for _, seats := range []int{-1, 0, 1, 1000} {
			_, err := svc.CreateBooking(ctx, defaultCustomer, e, seats)
			assert.ErrorIs(t, err, service.ErrNotRegistered, "seats=%d", seats)
		}
	})

	t.Run("unregistered event", func(t *testing.T) {
		svc := service.NewBookingService()
		c := svc.RegisterCustomer(defaultCustomer.Name, defaultCustomer.Address)

		_, err := svc.CreateBooking(ctx, c, defaultEvent, 1)
		assert.ErrorIs(t, err, service.ErrNotRegistered)
	})

	t.Run("no seats left", func(t *testing.T) {
		svc := service.NewBookingService()
		c, e := registerDefaults(svc)

		_, err := svc.CreateBooking(ctx, c, e, e.Seating)
		require.NoError(t, err)
		before := svc.Bookings()

		_, err = svc.CreateBooking(ctx, c, e, 1)
		assert.ErrorIs(t, err, service.ErrCapacityExceeded)
		assert.Equal(t, before, svc.Bookings())
	})

	t.Run("capacity is checked before merging", func(t *testing.T) {
		svc := service.NewBookingService()
		c, e := registerDefaults(svc)

		_, err := svc.CreateBooking(ctx, c, e, 60)
		require.NoError(t, err)

		_, err = svc.CreateBooking(ctx, c, e, 41)
		assert.ErrorIs(t, err, service.ErrCapacityExceeded)

		b, err := svc.CreateBooking(ctx, c, e, 40)
		require.NoError(t, err)
		assert.Equal(t, 100, b.Seats)
	})
}

func TestCreateBooking_AnySeatCount(t *testing.T) {
	ctx := context.Background()
	svc := service.NewBookingService()
	c, e := registerDefaults(svc)

	b, err := svc.CreateBooking(ctx, c, e, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Seats)

	b, err = svc.CreateBooking(ctx, c, e, -5)
	require.NoError(t, err)
	assert.Equal(t, -5, b.Seats)
	assert.Len(t, svc.Bookings(), 1)

	seats, err := svc.AvailableSeats(e)
	require.NoError(t, err)
	assert.Equal(t, 105, seats)
}

func TestCustomerBookingForEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("absent when nothing booked", func(t *testing.T) {
		svc := service.NewBookingService()
		c, e := registerDefaults(svc)

		_, ok, err := svc.CustomerBookingForEvent(c, e)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unregistered customer or event", func(t *testing.T) {
		svc := service.NewBookingService()
		svc.RegisterEvent(defaultEvent.ID, defaultEvent.Title, defaultEvent.Date, defaultEvent.Price, defaultEvent.Seating, defaultEvent.OrganizerEmail)

		_, _, err := svc.CustomerBookingForEvent(defaultCustomer, defaultEvent)
		assert.ErrorIs(t, err, service.ErrNotRegistered)

		svc = service.NewBookingService()
		svc.RegisterCustomer(defaultCustomer.Name, defaultCustomer.Address)
		_, _, err = svc.CustomerBookingForEvent(defaultCustomer, defaultEvent)
		assert.ErrorIs(t, err, service.ErrNotRegistered)
	})

	t.Run("multiple customers", func(t *testing.T) {
		svc := service.NewBookingService()
		c, e := registerDefaults(svc)
		other := svc.RegisterCustomer("mueller", "strasse 123")

		first, err := svc.CreateBooking(ctx, c, e, 1)
		require.NoError(t, err)
		second, err := svc.CreateBooking(ctx, other, e, 1)
		require.NoError(t, err)

		got, ok, err := svc.CustomerBookingForEvent(c, e)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, got.Equal(first))

		got, ok, err = svc.CustomerBookingForEvent(other, e)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, got.Equal(second))
	})

	t.Run("multiple events", func(t *testing.T) {
		svc := service.NewBookingService()
		c, e := registerDefaults(svc)
		second := svc.RegisterEvent("123", "test", eventDate, 100, 100, "")

		b1, err := svc.CreateBooking(ctx, c, e, e.Seating)
		require.NoError(t, err)
		b2, err := svc.CreateBooking(ctx, c, second, second.Seating)
		require.NoError(t, err)

		got, _, err := svc.CustomerBookingForEvent(c, e)
		require.NoError(t, err)
		assert.True(t, got.Equal(b1))
		got, _, err = svc.CustomerBookingForEvent(c, second)
		require.NoError(t, err)
		assert.True(t, got.Equal(b2))
	})
}

func TestCreateBooking_Blacklist(t *testing.T) {
	ctx := context.Background()

	t.Run("queries the blacklist", func(t *testing.T) {
		bl := new(MockBlacklist)
		bl.On("IsCustomerBlacklisted", ctx, defaultCustomer).Return(false, nil).Once()
		svc := service.NewBookingService(service.WithBlacklist(bl))
		c, e := registerDefaults(svc)

		_, err := svc.CreateBooking(ctx, c, e, 1)
		require.NoError(t, err)
		bl.AssertExpectations(t)
	})

	t.Run("blacklisted customer is rejected", func(t *testing.T) {
		bl := new(MockBlacklist)
		bl.On("IsCustomerBlacklisted", ctx, defaultCustomer).Return(true, nil)
		svc := service.NewBookingService(service.WithBlacklist(bl))
		c, e := registerDefaults(svc)

		_, err := svc.CreateBooking(ctx, c, e, 1)
		assert.ErrorIs(t, err, service.ErrBlacklistedCustomer)
		assert.Empty(t, svc.Bookings())
	})

	t.Run("not consulted when capacity is exceeded", func(t *testing.T) {
		bl := new(MockBlacklist)
		svc := service.NewBookingService(service.WithBlacklist(bl))
		c, e := registerDefaults(svc)

		_, err := svc.CreateBooking(ctx, c, e, e.Seating+1)
		assert.ErrorIs(t, err, service.ErrCapacityExceeded)
		bl.AssertNotCalled(t, "IsCustomerBlacklisted", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure aborts booking", func(t *testing.T) {
		bl := new(MockBlacklist)
		bl.On("IsCustomerBlacklisted", ctx, defaultCustomer).Return(false, errors.New("redis down"))
		svc := service.NewBookingService(service.WithBlacklist(bl))
		c, e := registerDefaults(svc)

		_, err := svc.CreateBooking(ctx, c, e, 1)
		require.Error(t, err)
		assert.NotErrorIs(t, err, service.ErrBlacklistedCustomer)
		assert.Empty(t, svc.Bookings())
	})
}

func TestCreateBooking_Notifier(t *testing.T) {
	ctx := context.Background()

	t.Run("large booking notifies organizer once", func(t *testing.T) {
		n := new(MockNotifier)
		n.On("SendMail", ctx, defaultEvent.OrganizerEmail, "").Return(nil).Once()
		svc := service.NewBookingService(service.WithNotifier(n))
		c, e := registerDefaults(svc)

		_, err := svc.CreateBooking(ctx, c, e, 10)
		require.NoError(t, err)
		n.AssertExpectations(t)
		n.AssertNumberOfCalls(t, "SendMail", 1)
	})

	t.Run("small booking does not notify", func(t *testing.T) {
		n := new(MockNotifier)
		svc := service.NewBookingService(service.WithNotifier(n))
		c, e := registerDefaults(svc)

		_, err := svc.CreateBooking(ctx, c, e, 9)
		require.NoError(t, err)
		n.AssertNotCalled(t, "SendMail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("threshold uses requested seats, not merged total", func(t *testing.T) {
		n := new(MockNotifier)
		svc := service.NewBookingService(service.WithNotifier(n))
		c, e := registerDefaults(svc)

		for i := 0; i < 3; i++ {
			_, err := svc.CreateBooking(ctx, c, e, 5)
			require.NoError(t, err)
		}
		n.AssertNotCalled(t, "SendMail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("threshold does not overflow on huge halls", func(t *testing.T) {
		n := new(MockNotifier)
		n.On("SendMail", ctx, "org@example.com", "").Return(nil).Once()
		svc := service.NewBookingService(service.WithNotifier(n))
		c := svc.RegisterCustomer(defaultCustomer.Name, defaultCustomer.Address)
		e := svc.RegisterEvent("arena", "arena", eventDate, 1, math.MaxInt, "org@example.com")

		_, err := svc.CreateBooking(ctx, c, e, math.MaxInt/2)
		require.NoError(t, err)
		n.AssertNumberOfCalls(t, "SendMail", 1)
	})

	t.Run("threshold rounds up for seating not divisible by ten", func(t *testing.T) {
		n := new(MockNotifier)
		n.On("SendMail", ctx, "org@example.com", "").Return(nil).Once()
		svc := service.NewBookingService(service.WithNotifier(n))
		c := svc.RegisterCustomer(defaultCustomer.Name, defaultCustomer.Address)
		e := svc.RegisterEvent("small", "small", eventDate, 1, 95, "org@example.com")

		_, err := svc.CreateBooking(ctx, c, e, 9)
		require.NoError(t, err)
		n.AssertNotCalled(t, "SendMail", mock.Anything, mock.Anything, mock.Anything)

		_, err = svc.CreateBooking(ctx, c, e, 10)
		require.NoError(t, err)
		n.AssertNumberOfCalls(t, "SendMail", 1)
	})

	t.Run("blacklisted customer triggers no mail", func(t *testing.T) {
		bl := new(MockBlacklist)
		bl.On("IsCustomerBlacklisted", ctx, defaultCustomer).Return(true, nil)
		n := new(MockNotifier)
		svc := service.NewBookingService(service.WithBlacklist(bl), service.WithNotifier(n))
		c, e := registerDefaults(svc)

		_, err := svc.CreateBooking(ctx, c, e, 50)
		assert.ErrorIs(t, err, service.ErrBlacklistedCustomer)
		n.AssertNotCalled(t, "SendMail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mail failure propagates and nothing is booked", func(t *testing.T) {
		n := new(MockNotifier)
		n.On("SendMail", ctx, defaultEvent.OrganizerEmail, "").Return(errors.New("smtp down"))
		svc := service.NewBookingService(service.WithNotifier(n))
		c, e := registerDefaults(svc)

		_, err := svc.CreateBooking(ctx, c, e, 50)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "smtp down")
		assert.Empty(t, svc.Bookings())
	})
}

func TestCreateBooking_IDGenerator(t *testing.T) {
	n := 0
	svc := service.NewBookingService(service.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("b-%d", n)
	}))
	c, e := registerDefaults(svc)

	b1, err := svc.CreateBooking(context.Background(), c, e, 1)
	require.NoError(t, err)
	b2, err := svc.CreateBooking(context.Background(), c, e, 1)
	require.NoError(t, err)

	assert.Equal(t, "b-1", b1.ID)
	assert.Equal(t, "b-2", b2.ID)
}

func TestCreateBooking_ConcurrentCallersNeverOverbook(t *testing.T) {
	svc := service.NewBookingService()
	e := svc.RegisterEvent("gig", "gig", eventDate, 10, 50, "")
	customers := make([]model.Customer, 20)
	for i := range customers {
		customers[i] = svc.RegisterCustomer(fmt.Sprintf("c%d", i), "somewhere")
	}

	var wg sync.WaitGroup
	for _, c := range customers {
		for j := 0; j < 5; j++ {
			wg.Add(1)
			go func(c model.Customer) {
				defer wg.Done()
				_, _ = svc.CreateBooking(context.Background(), c, e, 1)
			}(c)
		}
	}
	wg.Wait()

	seats, err := svc.AvailableSeats(e)
	require.NoError(t, err)
	assert.Zero(t, seats)
	assert.LessOrEqual(t, len(svc.Bookings()), len(customers))
}

func TestPersistLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()

	states := map[string]func(*service.BookingService){
		"empty": func(*service.BookingService) {},
		"registry only": func(s *service.BookingService) {
			registerDefaults(s)
			s.RegisterCustomer("mueller", "strasse 123")
		},
		"with bookings": func(s *service.BookingService) {
			c, e := registerDefaults(s)
			other := s.RegisterCustomer("mueller", "strasse 123")
			second := s.RegisterEvent("123", "test", eventDate.Add(24*time.Hour), 50, 20, "x@example.com")
			_, err := s.CreateBooking(ctx, c, e, e.Seating)
			require.NoError(t, err)
			_, err = s.CreateBooking(ctx, other, second, 3)
			require.NoError(t, err)
			_, err = s.CreateBooking(ctx, c, second, 2)
			require.NoError(t, err)
		},
		"dates beyond RFC 3339 range": func(s *service.BookingService) {
			c := s.RegisterCustomer("far", "future")
			far := s.RegisterEvent("far", "far", time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC), 1, 10, "")
			s.RegisterEvent("past", "past", time.Date(-44, 3, 15, 12, 0, 0, 0, time.FixedZone("ROM", 3600)), 1, 10, "")
			_, err := s.CreateBooking(ctx, c, far, 2)
			require.NoError(t, err)
		},
		"negative booking merged after a full one": func(s *service.BookingService) {
			c, e := registerDefaults(s)
			other := s.RegisterCustomer("mueller", "strasse 123")
			_, err := s.CreateBooking(ctx, c, e, -10)
			require.NoError(t, err)
			_, err = s.CreateBooking(ctx, other, e, 110)
			require.NoError(t, err)
			_, err = s.CreateBooking(ctx, c, e, 0)
			require.NoError(t, err)
		},
	}

	for name, build := range states {
		t.Run(name, func(t *testing.T) {
			svc := service.NewBookingService()
			build(svc)

			var buf bytes.Buffer
			require.NoError(t, svc.Persist(&buf))

			loaded, err := service.Load(&buf)
			require.NoError(t, err)
			assertSameState(t, svc, loaded)
		})
	}
}

func TestPersistLoad_LoadedServiceKeepsWorking(t *testing.T) {
	ctx := context.Background()
	svc := service.NewBookingService()
	c, e := registerDefaults(svc)
	first, err := svc.CreateBooking(ctx, c, e, 30)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Persist(&buf))

	n := new(MockNotifier)
	n.On("SendMail", ctx, e.OrganizerEmail, "").Return(nil).Once()
	loaded, err := service.Load(&buf, service.WithNotifier(n))
	require.NoError(t, err)

	merged, err := loaded.CreateBooking(ctx, c, e, 20)
	require.NoError(t, err)
	assert.Equal(t, 50, merged.Seats)
	assert.NotEqual(t, first.ID, merged.ID)
	n.AssertExpectations(t)

	seats, err := loaded.AvailableSeats(e)
	require.NoError(t, err)
	assert.Equal(t, 50, seats)
}

func TestLoad_CorruptState(t *testing.T) {
	c := defaultCustomer
	e := defaultEvent
	booking := func(seats int) model.Booking {
		return model.Booking{ID: "b", Customer: c, Event: e, Seats: seats}
	}

	cases := map[string]string{
		"garbage":       "not json",
		"truncated":     `{"version":1,"events":[`,
		"unknown key":   `{"version":1,"extra":true}`,
		"trailing data": `{"version":1,"events":[],"customers":[],"bookings":[]} GARBAGE`,
		"second value":  `{"version":1,"events":[],"customers":[],"bookings":[]}{}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := service.Load(strings.NewReader(raw))
			assert.ErrorIs(t, err, service.ErrCorruptState)
		})
	}

	snaps := map[string]model.Snapshot{
		"wrong version":         {Version: 99},
		"unregistered customer": {Version: model.SnapshotVersion, Events: []model.Event{e}, Bookings: []model.Booking{booking(1)}},
		"unregistered event":    {Version: model.SnapshotVersion, Customers: []model.Customer{c}, Bookings: []model.Booking{booking(1)}},
		"overbooked":            {Version: model.SnapshotVersion, Events: []model.Event{e}, Customers: []model.Customer{c}, Bookings: []model.Booking{booking(101)}},
		"duplicate pair":        {Version: model.SnapshotVersion, Events: []model.Event{e}, Customers: []model.Customer{c}, Bookings: []model.Booking{booking(1), booking(2)}},
	}
	for name, snap := range snaps {
		t.Run(name, func(t *testing.T) {
			_, err := service.FromSnapshot(snap)
			assert.ErrorIs(t, err, service.ErrCorruptState)
		})
	}
}

func assertSameState(t *testing.T, want, got *service.BookingService) {
	t.Helper()

	assert.Equal(t, want.Customers(), got.Customers())

	we, ge := want.Events(), got.Events()
	require.Len(t, ge, len(we))
	for i := range we {
		assert.True(t, we[i].Equal(ge[i]), "event %d", i)
	}

	wb, gb := want.Bookings(), got.Bookings()
	require.Len(t, gb, len(wb))
	for i := range wb {
		assert.True(t, wb[i].Equal(gb[i]), "booking %d", i)
	}
}
