package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnavneet/nerveconnect-sub000/internal/booking"
	"github.com/omnavneet/nerveconnect-sub000/internal/model"
)

// failingStore makes one store method return an error, everything else passes
// through to the in-memory implementation.
type failingStore struct {
	*booking.MemoryStore
	failOn string
	err    error
}

func (f *failingStore) AppointmentStarts(ctx context.Context, providerID string) ([]time.Time, error) {
	if f.failOn == "starts" {
		return nil, f.err
	}
	return f.MemoryStore.AppointmentStarts(ctx, providerID)
}

func (f *failingStore) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	if f.failOn == "create" {
		return f.err
	}
	return f.MemoryStore.CreateAppointment(ctx, a)
}

func (f *failingStore) WithProviderLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if f.failOn == "lock" {
		return f.err
	}
	return f.MemoryStore.WithProviderLock(ctx, name, fn)
}

func testClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
}

func newService(t *testing.T, opts ...booking.Option) (*booking.Service, *booking.MemoryStore) {
	t.Helper()
	checker, err := booking.NewChecker(booking.DefaultMinSpacing)
	require.NoError(t, err)
	st := booking.NewMemoryStore()
	opts = append([]booking.Option{booking.WithClock(testClock())}, opts...)
	return booking.NewService(st, checker, opts...), st
}

func TestBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("books a clear slot", func(t *testing.T) {
		t.Parallel()
		svc, st := newService(t)

		conf, err := svc.Book(ctx, booking.Request{
			PatientName:  "Jane Doe",
			ProviderName: "Dr. Smith",
			DateTime:     "2025-06-20T15:30:00Z",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, conf.AppointmentID)
		assert.Equal(t, "Dr. Smith", conf.ProviderName)
		assert.Equal(t, time.Date(2025, 6, 20, 15, 30, 0, 0, time.UTC), conf.StartTime)
		assert.Contains(t, conf.Message, "Dr. Smith")
		assert.Equal(t, 1, st.Appointments())
	})

	t.Run("rejects a slot 15 minutes after an existing one", func(t *testing.T) {
		t.Parallel()
		svc, st := newService(t)

		_, err := svc.Book(ctx, booking.Request{
			PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: "2025-06-20T15:30:00Z",
		})
		require.NoError(t, err)

		_, err = svc.Book(ctx, booking.Request{
			PatientName: "John Roe", ProviderName: "Dr. Smith", DateTime: "2025-06-20T15:45:00Z",
		})
		var conflict *booking.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "Dr. Smith", conflict.Provider)
		assert.Equal(t, time.Date(2025, 6, 20, 15, 45, 0, 0, time.UTC), conflict.Requested)
		assert.Equal(t, 1, st.Appointments())
	})

	t.Run("accepts a slot 35 minutes after an existing one", func(t *testing.T) {
		t.Parallel()
		svc, st := newService(t)

		_, err := svc.Book(ctx, booking.Request{
			PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: "2025-06-20T15:30:00Z",
		})
		require.NoError(t, err)

		_, err = svc.Book(ctx, booking.Request{
			PatientName: "John Roe", ProviderName: "Dr. Smith", DateTime: "2025-06-20T16:05:00Z",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, st.Appointments())
	})

	t.Run("same slot is free for a different provider", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)

		_, err := svc.Book(ctx, booking.Request{
			PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: "2025-06-20T15:30:00Z",
		})
		require.NoError(t, err)

		_, err = svc.Book(ctx, booking.Request{
			PatientName: "Jane Doe", ProviderName: "Dr. Jones", DateTime: "2025-06-20T15:30:00Z",
		})
		require.NoError(t, err)
	})

	t.Run("rejects a past datetime", func(t *testing.T) {
		t.Parallel()
		svc, st := newService(t)

		_, err := svc.Book(ctx, booking.Request{
			PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: "2020-01-01T00:00:00Z",
		})
		var past *booking.PastTimeError
		require.ErrorAs(t, err, &past)
		assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), past.Requested)
		assert.Equal(t, 0, st.Appointments())
	})

	t.Run("rejects the exact present instant", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)

		_, err := svc.Book(ctx, booking.Request{
			PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: "2025-06-01T12:00:00Z",
		})
		var past *booking.PastTimeError
		require.ErrorAs(t, err, &past)
	})

	t.Run("rejects missing fields before touching the store", func(t *testing.T) {
		t.Parallel()
		svc, st := newService(t)

		for _, req := range []booking.Request{
			{PatientName: "", ProviderName: "Dr. Smith", DateTime: "2025-06-20T15:30:00Z"},
			{PatientName: "Jane Doe", ProviderName: "", DateTime: "2025-06-20T15:30:00Z"},
			{PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: ""},
		} {
			_, err := svc.Book(ctx, req)
			var ve *booking.ValidationError
			require.ErrorAs(t, err, &ve)
		}
		assert.Equal(t, 0, st.Patients())
		assert.Equal(t, 0, st.Providers())
		assert.Equal(t, 0, st.Appointments())
	})

	t.Run("rejects an unparseable datetime", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)

		_, err := svc.Book(ctx, booking.Request{
			PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: "next tuesday",
		})
		var ve *booking.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("accepts zone-less datetimes in the service location", func(t *testing.T) {
		t.Parallel()
		checker, err := booking.NewChecker(booking.DefaultMinSpacing)
		require.NoError(t, err)
		svc := booking.NewService(booking.NewMemoryStore(), checker,
			booking.WithClock(testClock()), booking.WithLocation(time.UTC))

		conf, err := svc.Book(ctx, booking.Request{
			PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: "2025-06-20T15:30",
		})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 6, 20, 15, 30, 0, 0, time.UTC), conf.StartTime)
	})
}

func TestResolveIdentitiesIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st := newService(t)

	for _, dt := range []string{"2025-06-20T09:00:00Z", "2025-06-21T09:00:00Z"} {
		_, err := svc.Book(ctx, booking.Request{
			PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: dt,
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, st.Patients())
	assert.Equal(t, 1, st.Providers())
}

func TestIdentityRowsSurviveConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st := newService(t)

	_, err := svc.Book(ctx, booking.Request{
		PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: "2025-06-20T15:30:00Z",
	})
	require.NoError(t, err)

	// Default behavior: the new patient's row sticks even though the booking
	// itself is rejected.
	_, err = svc.Book(ctx, booking.Request{
		PatientName: "John Roe", ProviderName: "Dr. Smith", DateTime: "2025-06-20T15:45:00Z",
	})
	var conflict *booking.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 2, st.Patients())
	assert.Equal(t, 1, st.Appointments())
}

func TestTransactionalIdentitiesRollBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st := newService(t, booking.WithTransactionalIdentities())

	_, err := svc.Book(ctx, booking.Request{
		PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: "2025-06-20T15:30:00Z",
	})
	require.NoError(t, err)

	_, err = svc.Book(ctx, booking.Request{
		PatientName: "John Roe", ProviderName: "Dr. Smith", DateTime: "2025-06-20T15:45:00Z",
	})
	var conflict *booking.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, st.Patients(), "failed attempt should leave no patient row")
	assert.Equal(t, 1, st.Providers())
}

func TestBookWrapsStoreFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cause := errors.New("connection reset")

	for _, failOn := range []string{"starts", "create", "lock"} {
		failOn := failOn
		t.Run(failOn, func(t *testing.T) {
			t.Parallel()
			checker, err := booking.NewChecker(booking.DefaultMinSpacing)
			require.NoError(t, err)
			st := &failingStore{MemoryStore: booking.NewMemoryStore(), failOn: failOn, err: cause}
			svc := booking.NewService(st, checker, booking.WithClock(testClock()))

			_, err = svc.Book(ctx, booking.Request{
				PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: "2025-06-20T15:30:00Z",
			})
			var pe *booking.PersistenceError
			require.ErrorAs(t, err, &pe)
			assert.ErrorIs(t, err, cause)
		})
	}
}

func TestProviderSchedule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st := newService(t)

	_, err := svc.ProviderSchedule(ctx, "Dr. Nobody")
	require.ErrorIs(t, err, booking.ErrNotFound)
	assert.Equal(t, 0, st.Providers(), "listing must not create a provider")

	for _, dt := range []string{"2025-06-21T09:00:00Z", "2025-06-20T15:30:00Z"} {
		_, err := svc.Book(ctx, booking.Request{
			PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: dt,
		})
		require.NoError(t, err)
	}

	apts, err := svc.ProviderSchedule(ctx, "Dr. Smith")
	require.NoError(t, err)
	require.Len(t, apts, 2)
	assert.True(t, apts[0].StartTime.Before(apts[1].StartTime), "sorted by start time")
}

func TestAppointmentLookup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newService(t)

	conf, err := svc.Book(ctx, booking.Request{
		PatientName: "Jane Doe", ProviderName: "Dr. Smith", DateTime: "2025-06-20T15:30:00Z",
	})
	require.NoError(t, err)

	apt, err := svc.Appointment(ctx, conf.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, conf.StartTime, apt.StartTime)

	_, err = svc.Appointment(ctx, "missing-id")
	require.ErrorIs(t, err, booking.ErrNotFound)
}
